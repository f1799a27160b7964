package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bububa/scrape-embeddings/pkg/logger"
)

type Format int

const (
	FormatJSON Format = iota
	FormatJSONLines
)

func (f Format) String() string {
	if f == FormatJSONLines {
		return "jsonl"
	}
	return "json"
}

// DetectFormat picks the record encoding from the source name and content.
// Content that is not text at all is rejected.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	}
	mtype := mimetype.Detect(data)
	if mtype.Is("application/x-ndjson") {
		return FormatJSONLines, nil
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return FormatJSON, nil
		}
	}
	return FormatJSON, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
}

// Decode parses data as a JSON array of objects, or as a stream of objects
// when the format is JSON lines or the content does not start with '['.
func Decode(data []byte, format Format) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyInput
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	// numbers stay json.Number so large ids are written back unchanged
	dec.UseNumber()
	if format == FormatJSON && trimmed[0] == '[' {
		var records []Record
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected data after the records array")
		}
		if records == nil {
			records = []Record{}
		}
		return records, nil
	}
	records := make([]Record, 0, bytes.Count(trimmed, []byte{'\n'})+1)
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads every record of src.
func Load(ctx context.Context, src Source) ([]Record, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	format, err := DetectFormat(src.Name(), data)
	if err != nil {
		return nil, err
	}
	records, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(
		"records loaded",
		"source", src.Name(),
		"format", format,
		"bytes", len(data),
		"records", len(records),
	)
	return records, nil
}

// Opener resolves a location into a Source.
type Opener struct {
	S3Client   S3GetObjectAPI
	HTTPClient *http.Client
}

// Source returns an S3 source for s3:// locations, an HTTP source for http(s)
// URLs and a local file otherwise.
func (o Opener) Source(location string) (Source, error) {
	switch {
	case IsS3URI(location):
		bucket, key, err := ParseS3URI(location)
		if err != nil {
			return nil, err
		}
		return NewS3(WithS3Bucket(bucket), WithS3Key(key), WithS3Client(o.S3Client))
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHttp(WithHttpURL(location), WithHttpClient(o.HTTPClient)), nil
	default:
		return NewFile(location)
	}
}
