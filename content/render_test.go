package content

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func readItems(t *testing.T, path string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(b, &items))
	return items
}

func TestRenderBlog(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "blog", "older.md"), `---
title: Older Post
publishedDate: "2023-02-01"
tags: [go, cloud]
---
## Hello World

Some *text*.
`)
	writeFile(t, filepath.Join(src, "blog", "newer.md"), `---
title: Newer Post
slug: custom-slug
publishedDate: "2024-06-10"
author:
  name: Jo
---
Body.
`)
	writeFile(t, filepath.Join(src, "blog", "draft.md"), "no frontmatter here\n")

	r := NewRenderer(src, out, "", nil)
	n, err := r.Render(KindBlog)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items := readItems(t, filepath.Join(out, "blog.json"))
	require.Len(t, items, 2)

	assert.Equal(t, "Newer Post", items[0]["title"])
	assert.Equal(t, "custom-slug", items[0]["slug"])
	assert.Equal(t, "newer", items[0]["id"])
	assert.Equal(t, map[string]any{"name": "Jo"}, items[0]["author"])

	assert.Equal(t, "older", items[1]["slug"])
	assert.Equal(t, []any{"go", "cloud"}, items[1]["tags"])
	assert.Contains(t, items[1]["body_html"], `<h2 id="hello-world">Hello World</h2>`)
	assert.Contains(t, items[1]["body_html"], "<em>text</em>")
}

func TestRenderProjectsOrder(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "projects", "a.md"), "---\ntitle: A\nyear: 2021\n---\n")
	writeFile(t, filepath.Join(src, "projects", "b.md"), "---\ntitle: B\nyear: 2023\n---\n")
	writeFile(t, filepath.Join(src, "projects", "c.md"), "---\ntitle: C\nyear: 2020\nfeatured: true\n---\n")

	items, err := NewRenderer(src, out, "", nil).Items(KindProjects)
	require.NoError(t, err)

	var titles []any
	for _, it := range items {
		titles = append(titles, it["title"])
	}
	assert.Equal(t, []any{"C", "B", "A"}, titles)
}

func TestRenderUnknownKind(t *testing.T) {
	_, err := NewRenderer(t.TempDir(), t.TempDir(), "", nil).Render("recipes")
	assert.Error(t, err)
}

func TestRenderAllSkipsMissingDirs(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "projects", "a.md"), "---\ntitle: A\n---\n")

	require.NoError(t, NewRenderer(src, out, "", nil).RenderAll())
	assert.FileExists(t, filepath.Join(out, "projects.json"))
	assert.NoFileExists(t, filepath.Join(out, "blog.json"))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailResizes(t *testing.T) {
	data, w, h, err := Thumbnail(bytes.NewReader(pngBytes(t, 1600, 800)))
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, cfg.Width)
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	_, w, h, err := Thumbnail(bytes.NewReader(pngBytes(t, 300, 200)))
	require.NoError(t, err)
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)
}

func TestThumbnailInvalidImage(t *testing.T) {
	_, _, _, err := Thumbnail(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestRenderAttachesThumbnail(t *testing.T) {
	src, out, thumbs := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "images", "shot.png"), string(pngBytes(t, 1000, 500)))
	writeFile(t, filepath.Join(src, "projects", "Infra Kit.md"), "---\ntitle: Infra\nimage: shot.png\n---\n")
	writeFile(t, filepath.Join(src, "projects", "other.md"), "---\ntitle: Other\nimage: missing.png\n---\n")

	items, err := NewRenderer(src, out, thumbs, nil).Items(KindProjects)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byTitle := map[string]map[string]any{}
	for _, it := range items {
		byTitle[it["title"].(string)] = it
	}
	assert.Equal(t, map[string]any{
		"src":    "/public/thumbs/infra-kit.jpg",
		"width":  800,
		"height": 400,
	}, byTitle["Infra"]["thumbnail"])
	assert.FileExists(t, filepath.Join(thumbs, "infra-kit.jpg"))
	assert.NotContains(t, byTitle["Other"], "thumbnail")
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "hello-world", safeName("Hello, World!"))
	assert.Equal(t, "image", safeName("..."))
}

func TestWatchRerenders(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "blog", "first.md"), "---\ntitle: First\n---\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRenderer(src, out, "", nil).Watch(ctx, 20*time.Millisecond) }()

	blogJSON := filepath.Join(out, "blog.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(blogJSON)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(src, "blog", "second.md"), "---\ntitle: Second\n---\n")

	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(blogJSON)
		if err != nil {
			return false
		}
		var items []map[string]any
		return json.Unmarshal(b, &items) == nil && len(items) == 2
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchNothingToWatch(t *testing.T) {
	err := NewRenderer(t.TempDir(), t.TempDir(), "", nil).Watch(context.Background(), 0)
	assert.Error(t, err)
}
