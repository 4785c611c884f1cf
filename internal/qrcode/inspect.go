package qrcode

import (
	"bytes"
	"fmt"
	"image"

	"label-intake-api/internal/apperr"
)

// DefaultMaxPixels bounds the decoded size of an uploaded image.
const DefaultMaxPixels = 40_000_000

// Inspect reads only the image header. It fails when data is not in a
// registered format or when width*height exceeds maxPixels (0 disables
// the limit). Oversized images are reported as validation errors.
func Inspect(data []byte, maxPixels int) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, format, fmt.Errorf("%s image has no pixels", format)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return cfg, format, apperr.Wrap(apperr.ErrValidation, "inspect image",
			fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxPixels), nil)
	}
	return cfg, format, nil
}
