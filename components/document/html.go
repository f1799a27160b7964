package document

import (
	"bytes"
	"context"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
)

// HTML2MDParser rewrites scraped HTML as Markdown, keeping headings, lists and links.
type HTML2MDParser struct {
	opts []converter.ConvertOptionFunc
}

var _ Parser = (*HTML2MDParser)(nil)

func NewHTML2MDParser(opts ...converter.ConvertOptionFunc) *HTML2MDParser {
	return &HTML2MDParser{
		opts: opts,
	}
}

func (h *HTML2MDParser) Parse(_ context.Context, reader *bytes.Reader, writer io.Writer) error {
	bs, err := htmltomarkdown.ConvertReader(reader, h.opts...)
	if err != nil {
		return err
	}
	_, err = writer.Write(bs)
	return err
}

// HTMLTextParser keeps only the visible text of scraped HTML, one line per
// non empty text run.
type HTMLTextParser struct {
	// Drop lists the selectors removed before extracting text
	Drop []string
}

var _ Parser = (*HTMLTextParser)(nil)

var defaultDropSelectors = []string{"script", "style", "noscript", "template", "head"}

func NewHTMLTextParser(drop ...string) *HTMLTextParser {
	if len(drop) == 0 {
		drop = defaultDropSelectors
	}
	return &HTMLTextParser{Drop: drop}
}

func (h *HTMLTextParser) Parse(_ context.Context, reader *bytes.Reader, writer io.Writer) error {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return err
	}
	doc.Find(strings.Join(h.Drop, ",")).Remove()
	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	_, err = io.WriteString(writer, strings.Join(out, "\n"))
	return err
}
