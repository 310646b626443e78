package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/hashpulse/internal/adapter/csvfeed"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

const uploadField = "file"

func (s *Server) registerUploadRoutes(g *echo.Group) {
	limiter := newRateLimiter(s.config.UploadRateLimit, s.config.UploadRateBurst)
	g.POST("/file", s.handleUpload, limiter)
}

// handleUpload streams the multipart "file" part straight into the ingestor,
// so the feed is never buffered on disk.
func (s *Server) handleUpload(c echo.Context) error {
	uploader, err := uploaderIdentity(c)
	if err != nil {
		return err
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.config.MaxUploadBytes)

	mr, err := req.MultipartReader()
	if err != nil {
		return apperrors.ValidationError("expected a multipart/form-data upload").Wrap(err)
	}

	part, err := filePart(mr)
	if err != nil {
		return uploadError(err)
	}
	defer func() { _ = part.Close() }()

	counter := &countingReader{r: part}
	err = s.svc.Ingestor.Ingest(req.Context(), csvfeed.NewReader(counter), uploader)
	if s.httpMetrics != nil {
		s.httpMetrics.UploadBytes.Observe(float64(counter.n))
	}
	if err != nil {
		return uploadError(err)
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

var errNoFilePart = errors.New("no file part in upload")

func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		_ = part.Close()
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "upload exceeds size limit").SetInternal(err)
	}
	if errors.Is(err, errNoFilePart) {
		return apperrors.ValidationError("missing file field").WithField("field", uploadField)
	}
	if apperrors.TypeOf(err) != "" {
		return err
	}
	return apperrors.ValidationError("malformed multipart upload").Wrap(err)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
