package document

import (
	"bytes"
	"context"
	"io"
	"strings"
)

// Parser rewrites raw content, for instance HTML into Markdown.
type Parser interface {
	Parse(context.Context, *bytes.Reader, io.Writer) error
}

// ParseString runs p over text.
func ParseString(ctx context.Context, p Parser, text string) (string, error) {
	var sb strings.Builder
	if err := p.Parse(ctx, bytes.NewReader([]byte(text)), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
