package qrcode

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// defaultMinSide is the longest side below which a second decode attempt
// is made on an upscaled copy.
const defaultMinSide = 800

// Engine finds codes in an image and returns their payloads in the
// engine's native order.
type Engine interface {
	Decode(img image.Image) []string
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxPixels overrides DefaultMaxPixels. Zero disables the limit.
func WithMaxPixels(px int) Option {
	return func(d *Decoder) {
		if px >= 0 {
			d.maxPixels = px
		}
	}
}

// WithMinSide overrides the upscale threshold. Zero disables the retry.
func WithMinSide(px int) Option {
	return func(d *Decoder) {
		if px >= 0 {
			d.minSide = px
		}
	}
}

// Decoder reduces the engine's zero-or-more results to one optional value.
type Decoder struct {
	engine    Engine
	minSide   int
	maxPixels int
}

// NewDecoder wraps engine. A nil engine uses the gozxing engine.
func NewDecoder(engine Engine, opts ...Option) *Decoder {
	if engine == nil {
		engine = NewEngine()
	}
	d := &Decoder{engine: engine, minSide: defaultMinSide, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode returns the first decoded payload, or nil when the bytes are not
// an image or hold no readable code. Errors are context cancellation and
// images larger than the pixel limit.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	logger := logging.FromContext(ctx)

	if _, _, err := Inspect(data, d.maxPixels); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			return nil, err
		}
		logger.Debug("qr image undecodable", zap.Error(err))
		return nil, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Debug("qr image undecodable", zap.Error(err))
		return nil, nil
	}

	if v := first(d.engine.Decode(img)); v != nil {
		return v, nil
	}

	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if d.minSide == 0 || longest == 0 || longest >= d.minSide {
		logger.Debug("no code found", zap.String("format", format))
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale := max(2, d.minSide/longest)
	v := first(d.engine.Decode(upscale(img, scale)))
	if v == nil {
		logger.Debug("no code found after upscale", zap.String("format", format), zap.Int("scale", scale))
	}
	return v, nil
}

func first(candidates []string) *string {
	if len(candidates) == 0 || candidates[0] == "" {
		return nil
	}
	v := candidates[0]
	return &v
}

func upscale(img image.Image, scale int) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
