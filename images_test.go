package pubcontent

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestResizeImage(t *testing.T) {
	src := testPNG(t, 200, 100)

	data, changed, err := resizeImage(bytes.NewReader(src), ".png", 50)
	if err != nil {
		t.Fatalf("resizeImage: %v", err)
	}
	if !changed {
		t.Fatal("changed = false, want a scaled copy")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "png" || cfg.Width != 50 || cfg.Height != 25 {
		t.Errorf("result = %s %dx%d, want png 50x25", format, cfg.Width, cfg.Height)
	}

	data, _, err = resizeImage(bytes.NewReader(src), ".jpg", 50)
	if err != nil {
		t.Fatalf("resizeImage(jpg): %v", err)
	}
	if _, format, _ := image.DecodeConfig(bytes.NewReader(data)); format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
}

func TestResizeImageNarrowEnough(t *testing.T) {
	data, changed, err := resizeImage(bytes.NewReader(testPNG(t, 40, 40)), ".png", 50)
	if err != nil {
		t.Fatalf("resizeImage: %v", err)
	}
	if changed || data != nil {
		t.Errorf("changed = %v, len(data) = %d; want untouched", changed, len(data))
	}
}

func TestResizeImageRejectsGarbage(t *testing.T) {
	if _, _, err := resizeImage(bytes.NewReader([]byte("not an image")), ".png", 50); err == nil {
		t.Error("resizeImage accepted garbage")
	}
}

func TestPublishHeaderImage(t *testing.T) {
	static := fstest.MapFS{
		"assets/images/wide.png": {Data: testPNG(t, 120, 60)},
		"assets/images/bad.png":  {Data: []byte("garbage")},
	}
	out := t.TempDir()

	changed, err := publishHeaderImage(static, "/assets/images/wide.png", out, 60)
	if err != nil || !changed {
		t.Fatalf("publishHeaderImage = %v, %v; want true, nil", changed, err)
	}
	f, err := os.Open(filepath.Join(out, "assets", "images", "wide.png"))
	if err != nil {
		t.Fatalf("scaled copy missing: %v", err)
	}
	defer f.Close()
	if cfg, _, err := image.DecodeConfig(f); err != nil || cfg.Width != 60 {
		t.Errorf("scaled width = %d (err %v), want 60", cfg.Width, err)
	}

	if changed, err := publishHeaderImage(static, "/assets/images/bad.png", out, 60); err != nil || changed {
		t.Errorf("undecodable image = %v, %v; want false, nil", changed, err)
	}
	if _, err := publishHeaderImage(static, "/assets/images/gone.png", out, 60); err == nil {
		t.Error("missing image returned no error")
	}
	if _, err := publishHeaderImage(static, "/../../etc/passwd", out, 60); err == nil {
		t.Error("escaping path returned no error")
	}
}
