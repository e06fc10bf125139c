// Package content turns Markdown files with YAML frontmatter into the JSON
// payloads the site serves as static data.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Content kinds, each rendered to "<kind>.json".
const (
	KindBlog     = "blog"
	KindProjects = "projects"
)

// Kinds lists every kind Render understands.
var Kinds = []string{KindBlog, KindProjects}

// yamlFormat parses "---" delimited frontmatter with yaml.v3, which decodes
// nested mappings as map[string]any so they survive JSON encoding.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Renderer renders {Source}/{kind}/*.md into {Out}/{kind}.json. When Thumbs
// is set, an "image" field naming a file under {Source}/images is resized
// into {Thumbs}/{slug}.jpg.
type Renderer struct {
	Source string
	Out    string
	Thumbs string

	logger *zap.Logger
	md     goldmark.Markdown
}

// NewRenderer creates a Renderer. A nil logger discards output.
func NewRenderer(source, out, thumbs string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		Source: source,
		Out:    out,
		Thumbs: thumbs,
		logger: logger,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// RenderAll renders every kind whose source directory exists.
func (r *Renderer) RenderAll() error {
	for _, kind := range Kinds {
		if _, err := os.Stat(filepath.Join(r.Source, kind)); errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("no source directory", zap.String("kind", kind))
			continue
		}
		if _, err := r.Render(kind); err != nil {
			return err
		}
	}
	return nil
}

// Render writes {Out}/{kind}.json and returns the number of items.
func (r *Renderer) Render(kind string) (int, error) {
	items, err := r.Items(kind)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(r.Out, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", kind, err)
	}
	out := filepath.Join(r.Out, kind+".json")
	if err := writeFileAtomic(out, append(b, '\n')); err != nil {
		return 0, err
	}
	r.logger.Info("rendered content", zap.String("kind", kind), zap.Int("items", len(items)), zap.String("path", out))
	return len(items), nil
}

// Items parses the Markdown files of kind and returns them sorted for
// display: blog posts newest first, projects featured first and then by
// year, newest first.
func (r *Renderer) Items(kind string) ([]map[string]any, error) {
	if kind != KindBlog && kind != KindProjects {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	paths, err := filepath.Glob(filepath.Join(r.Source, kind, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	items := make([]map[string]any, 0, len(paths))
	for _, p := range paths {
		item, err := r.parseFile(p)
		if errors.Is(err, frontmatter.ErrNotFound) {
			r.logger.Warn("no frontmatter, skipping", zap.String("file", p))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if r.Thumbs != "" {
			if err := r.attachThumbnail(item); err != nil {
				r.logger.Warn("thumbnail failed", zap.String("file", p), zap.Error(err))
			}
		}
		items = append(items, item)
	}

	if kind == KindBlog {
		sort.SliceStable(items, func(i, j int) bool {
			return sortKey(items[i]["publishedDate"]) > sortKey(items[j]["publishedDate"])
		})
	} else {
		sort.SliceStable(items, func(i, j int) bool {
			fi, fj := items[i]["featured"] == true, items[j]["featured"] == true
			if fi != fj {
				return fi
			}
			return sortKey(items[i]["year"]) > sortKey(items[j]["year"])
		})
	}
	return items, nil
}

func (r *Renderer) parseFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	body, err := frontmatter.MustParse(bytes.NewReader(raw), &meta, yamlFormat)
	if err != nil {
		return nil, err
	}
	var html bytes.Buffer
	if err := r.md.Convert(body, &html); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	meta["body_html"] = html.String()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, ok := meta["id"]; !ok {
		meta["id"] = stem
	}
	if _, ok := meta["slug"]; !ok {
		meta["slug"] = stem
	}
	return meta, nil
}

// sortKey renders a frontmatter value comparable as a string; missing
// values sort last in descending order.
func sortKey(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
