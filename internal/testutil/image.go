package testutil

import (
	"bytes"
	"image"
	"image/png"
)

// LabelPhoto returns a small blank PNG that passes image validation.
func LabelPhoto() []byte {
	img := image.NewGray(image.Rect(0, 0, 64, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
