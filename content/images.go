package content

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/image/draw"
)

const (
	maxThumbWidth = 800
	jpegQuality   = 80
)

// Thumbnail decodes an image, shrinks it to at most maxThumbWidth pixels
// wide keeping the aspect ratio, and encodes it as JPEG.
func Thumbnail(src io.Reader) (data []byte, width, height int, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxThumbWidth {
		newH := h * maxThumbWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxThumbWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxThumbWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// attachThumbnail writes the thumbnail for item's "image" and records its
// public path in "thumbnail". Items without an image are left alone.
func (r *Renderer) attachThumbnail(item map[string]any) error {
	name, _ := item["image"].(string)
	if name == "" || strings.Contains(name, "://") {
		return nil
	}
	f, err := os.Open(filepath.Join(r.Source, "images", filepath.Clean("/"+name)))
	if err != nil {
		return err
	}
	defer f.Close()

	data, w, h, err := Thumbnail(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.Thumbs, 0o755); err != nil {
		return fmt.Errorf("create thumbs dir: %w", err)
	}
	slug, _ := item["slug"].(string)
	filename := safeName(slug) + ".jpg"
	if err := os.WriteFile(filepath.Join(r.Thumbs, filename), data, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	item["thumbnail"] = map[string]any{
		"src":    "/public/thumbs/" + filename,
		"width":  w,
		"height": h,
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// safeName lower-cases s and collapses anything outside [a-z0-9] into dashes.
func safeName(s string) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "image"
	}
	return s
}
