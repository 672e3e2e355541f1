package pubcontent

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 82

// resizeImage decodes src and scales it down to maxWidth when it is wider,
// keeping the aspect ratio. The result is encoded as PNG for ".png" and JPEG
// otherwise. changed is false when no scaling was needed.
func resizeImage(src io.Reader, ext string, maxWidth int) (data []byte, changed bool, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return nil, false, nil
	}

	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}

// publishHeaderImage writes a scaled copy of the local image ref (a
// site-root path such as "/assets/images/h.jpg") from static into outDir.
// Images already narrow enough, and formats that cannot be decoded, are
// left as the static copy put them.
func publishHeaderImage(static fs.FS, ref, outDir string, maxWidth int) (bool, error) {
	name := strings.TrimPrefix(path.Clean("/"+ref), "/")
	f, err := static.Open(name)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", ref, err)
	}
	defer f.Close()

	data, changed, err := resizeImage(f, path.Ext(name), maxWidth)
	if errors.Is(err, image.ErrFormat) {
		return false, nil
	}
	if err != nil || !changed {
		return false, err
	}
	dst := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", dst, err)
	}
	return true, nil
}
