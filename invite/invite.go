// Package invite renders the personalized invitation sent after a
// completed registration: an avatar fetched from an external service
// composited onto a template with the registrant's name and email.
package invite

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"confbot/core/logger"
	"confbot/scenario"
	"log/slog"
)

const (
	defaultWidth  = 640
	defaultHeight = 420

	nameOffsetX  = 270
	nameOffsetY  = 298
	emailOffsetX = 270
	emailOffsetY = 350

	avatarOffsetX = 60
	avatarOffsetY = 260
)

// Config describes where the generator finds its assets.
type Config struct {
	// TemplatePath points at the background image; empty uses a plain canvas.
	TemplatePath string
	// FontPath points at a TTF file; empty falls back to a builtin bitmap face.
	FontPath string
	FontSize float64
	// AvatarURL is a printf-style pattern receiving the escaped registrant
	// name; empty disables avatar compositing.
	AvatarURL string
	// Client performs avatar fetches; nil uses a client with a short timeout.
	Client *http.Client
}

// Generator implements scenario.ImageGenerator.
type Generator struct {
	template  image.Image
	face      font.Face
	avatarURL string
	client    *http.Client
}

// New loads the template and font eagerly so a broken asset path fails at
// startup, not on the first completed registration.
func New(cfg Config) (*Generator, error) {
	g := &Generator{avatarURL: cfg.AvatarURL, client: cfg.Client}
	if g.client == nil {
		g.client = &http.Client{Timeout: 10 * time.Second}
	}

	if cfg.TemplatePath != "" {
		f, err := os.Open(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("open invitation template: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode invitation template: %w", err)
		}
		g.template = img
	}

	if cfg.FontPath != "" {
		size := cfg.FontSize
		if size <= 0 {
			size = 25
		}
		face, err := gg.LoadFontFace(cfg.FontPath, size)
		if err != nil {
			return nil, fmt.Errorf("load invitation font: %w", err)
		}
		g.face = face
	} else {
		g.face = basicfont.Face7x13
	}

	return g, nil
}

// Generate renders the invitation PNG for a completed registration.
func (g *Generator) Generate(ctx context.Context, dialogCtx *scenario.Context) ([]byte, error) {
	if dialogCtx == nil || dialogCtx.Name == "" || dialogCtx.Email == "" {
		return nil, fmt.Errorf("invitation requires a collected name and email")
	}

	start := time.Now()
	dc := g.newCanvas()

	if g.avatarURL != "" {
		avatar, err := g.fetchAvatar(ctx, dialogCtx.Name)
		if err != nil {
			return nil, fmt.Errorf("fetch avatar: %w", err)
		}
		dc.DrawImage(avatar, avatarOffsetX, avatarOffsetY)
	}

	dc.SetFontFace(g.face)
	dc.SetRGB(0, 0, 0)
	dc.DrawString(dialogCtx.Name, nameOffsetX, nameOffsetY)
	dc.DrawString(dialogCtx.Email, emailOffsetX, emailOffsetY)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode invitation: %w", err)
	}

	logger.Debug(ctx, "invite", "invite.render",
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return buf.Bytes(), nil
}

func (g *Generator) newCanvas() *gg.Context {
	if g.template != nil {
		return gg.NewContextForImage(g.template)
	}
	dc := gg.NewContext(defaultWidth, defaultHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return dc
}

func (g *Generator) fetchAvatar(ctx context.Context, name string) (image.Image, error) {
	target := fmt.Sprintf(g.avatarURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar service status: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return img, nil
}

var _ scenario.ImageGenerator = (*Generator)(nil)
