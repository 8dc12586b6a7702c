package invite

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"confbot/scenario"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func avatarServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for x := 0; x < 32; x++ {
			for y := 0; y < 32; y++ {
				img.Set(x, y, color.RGBA{R: 200, A: 255})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			t.Errorf("encode avatar: %v", err)
		}
	}))
}

func TestGenerateInvitation(t *testing.T) {
	srv := avatarServer(t)
	defer srv.Close()

	gen, err := New(Config{AvatarURL: srv.URL + "/avatars/%s", Client: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := gen.Generate(context.Background(), &scenario.Context{
		Name:  "Kirill",
		Email: "kirill@example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatalf("output is not a PNG, first bytes: %v", data[:4])
	}
}

func TestGenerateWithoutAvatarService(t *testing.T) {
	gen, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := gen.Generate(context.Background(), &scenario.Context{
		Name:  "Ann",
		Email: "ann@example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestGenerateRequiresCollectedContext(t *testing.T) {
	gen, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := gen.Generate(context.Background(), &scenario.Context{Name: "Ann"}); err == nil {
		t.Fatal("expected error for missing email")
	}
	if _, err := gen.Generate(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil context")
	}
}

func TestGenerateAvatarFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gen, err := New(Config{AvatarURL: srv.URL + "/avatars/%s", Client: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := gen.Generate(context.Background(), &scenario.Context{
		Name:  "Ann",
		Email: "ann@example.com",
	}); err == nil {
		t.Fatal("expected error when avatar service fails")
	}
}

func TestNewRejectsMissingTemplate(t *testing.T) {
	if _, err := New(Config{TemplatePath: "does/not/exist.png"}); err == nil {
		t.Fatal("expected error for missing template")
	}
}
