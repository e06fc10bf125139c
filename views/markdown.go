package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/eringen/folio/search"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Body renders an item's long-form content. Pre-rendered "body_html" from
// the content pipeline is used as is; otherwise a Markdown "content" field
// is converted on the fly.
func Body(item search.Item) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if html := search.String(item, "body_html"); html != "" {
			_, err := io.WriteString(w, html)
			return err
		}
		src := search.String(item, "content")
		if src == "" {
			return nil
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}
