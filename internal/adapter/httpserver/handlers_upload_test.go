package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/pscheid92/hashpulse/internal/platform/config"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

const sampleFeed = "name,tweet,created,retweets,likes\nalice,loving #go,2024-03-01,1,2\nbob,meh #rust,2024-03-02,0,0\n"

func uploadRequest(t *testing.T, field, content, uploader string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "ignored"))
	fw, err := w.CreateFormFile(field, "feed.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := newRequest(http.MethodPost, "/api/file", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if uploader != "" {
		req.Header.Set(uploaderHeader, uploader)
	}
	return req
}

func drain(records domain.RecordReader) ([]domain.RawPost, error) {
	var out []domain.RawPost
	for {
		raw, err := records.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, raw)
	}
}

func TestUpload_StreamsFeedToIngestor(t *testing.T) {
	var gotUploader string
	var got []domain.RawPost
	ingestor := &mockIngestor{ingestFn: func(_ context.Context, records domain.RecordReader, uploader string) error {
		gotUploader = uploader
		var err error
		got, err = drain(records)
		return err
	}}
	srv := newTestServer(t, withIngestor(ingestor))

	rec := serve(srv, uploadRequest(t, "file", sampleFeed, "alice@example.com"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "alice@example.com", gotUploader)
	require.Len(t, got, 2)
	assert.Equal(t, "loving #go", got[0].Text)
	assert.Equal(t, "2", got[0].Likes)
	assert.Equal(t, "bob", got[1].Name)
}

func TestUpload_MissingUploader(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, uploadRequest(t, "file", sampleFeed, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing uploader identity")
}

func TestUpload_MissingFileField(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, uploadRequest(t, "attachment", sampleFeed, "u"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing file field")
}

func TestUpload_NotMultipart(t *testing.T) {
	srv := newTestServer(t)
	req := newRequest(http.MethodPost, "/api/file", strings.NewReader(sampleFeed))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set(uploaderHeader, "u")

	rec := serve(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	ingestor := &mockIngestor{ingestFn: func(_ context.Context, records domain.RecordReader, _ string) error {
		_, err := drain(records)
		return apperrors.ValidationError("invalid post record").Wrap(err)
	}}
	srv := newTestServer(t,
		withIngestor(ingestor),
		withConfig(func(c *config.Config) { c.MaxUploadBytes = 512 }),
	)

	big := "name,tweet\n" + strings.Repeat("someone,a fairly long post #go\n", 100)
	rec := serve(srv, uploadRequest(t, "file", big, "u"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_IngestErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.ValidationError("invalid post record"), http.StatusBadRequest},
		{"classifier", apperrors.ExternalError("failed to classify post", errors.New("down")), http.StatusBadGateway},
		{"conflict", apperrors.ConflictError("keyword update conflict", nil), http.StatusConflict},
		{"internal", apperrors.InternalError("failed to persist feed", errors.New("db")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestor := &mockIngestor{ingestFn: func(context.Context, domain.RecordReader, string) error { return tt.err }}
			srv := newTestServer(t, withIngestor(ingestor))

			rec := serve(srv, uploadRequest(t, "file", sampleFeed, "u"))

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"type":"`)
		})
	}
}

func TestUpload_RateLimited(t *testing.T) {
	ingestor := &mockIngestor{ingestFn: func(context.Context, domain.RecordReader, string) error { return nil }}
	srv := newTestServer(t,
		withIngestor(ingestor),
		withConfig(func(c *config.Config) {
			c.UploadRateLimit = 0.001
			c.UploadRateBurst = 1
		}),
	)

	first := serve(srv, uploadRequest(t, "file", sampleFeed, "u"))
	second := serve(srv, uploadRequest(t, "file", sampleFeed, "u"))
	other := serve(srv, uploadRequest(t, "file", sampleFeed, "someone-else"))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("hello world")}
	b, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(b))
	assert.Equal(t, int64(11), cr.n)
}
