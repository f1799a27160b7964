package document

import (
	"context"
	"errors"
	"io"
	"maps"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrEmptyInput        = errors.New("empty input")
)

// TextField is the record field holding the text to embed.
const TextField = "text"

// Record is one scraped item decoded from a JSON object. Fields other than
// text are carried through processing untouched.
type Record map[string]any

// Text returns the text field, or "" when it is absent or not a string.
func (r Record) Text() string {
	if v, ok := r[TextField].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Source is a location records can be read from.
type Source interface {
	// Open returns a reader over the raw source bytes. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and is used for format detection.
	Name() string
	Meta() map[string]string
}
