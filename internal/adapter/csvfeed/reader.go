// Package csvfeed decodes uploaded CSV post feeds.
//
// The first row is a header naming the columns name, tweet, location, created,
// retweets and likes in any order and case. Unknown columns are ignored and
// missing optional columns decode as empty strings; only the tweet column is required.
package csvfeed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pscheid92/hashpulse/internal/domain"
)

var ErrMissingTextColumn = errors.New("csv header has no tweet column")

const (
	colName     = "name"
	colText     = "tweet"
	colLocation = "location"
	colCreated  = "created"
	colRetweets = "retweets"
	colLikes    = "likes"
)

// Reader implements domain.RecordReader over a CSV stream.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	started bool
}

var _ domain.RecordReader = (*Reader)(nil)

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next record, or io.EOF after the last one. An input with no
// header row at all is an empty feed.
func (r *Reader) Next() (domain.RawPost, error) {
	if !r.started {
		r.started = true
		if err := r.readHeader(); err != nil {
			return domain.RawPost{}, err
		}
	}

	for {
		row, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return domain.RawPost{}, io.EOF
			}
			return domain.RawPost{}, fmt.Errorf("failed to read csv record: %w", err)
		}
		if isBlank(row) {
			continue
		}

		return domain.RawPost{
			Name:     r.field(row, colName),
			Text:     r.field(row, colText),
			Location: r.field(row, colLocation),
			Created:  r.field(row, colCreated),
			Retweets: r.field(row, colRetweets),
			Likes:    r.field(row, colLikes),
		}, nil
	}
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("failed to read csv header: %w", err)
	}

	r.columns = make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := r.columns[key]; !dup {
			r.columns[key] = i
		}
	}

	if _, ok := r.columns[colText]; !ok {
		return ErrMissingTextColumn
	}
	return nil
}

func (r *Reader) field(row []string, column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
