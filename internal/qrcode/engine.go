package qrcode

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// GozxingEngine decodes QR, DataMatrix and Code128 symbols. The first
// reader that recognises a symbol determines the result.
type GozxingEngine struct {
	readers []func() gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

var _ Engine = (*GozxingEngine)(nil)

// NewEngine returns the default gozxing engine.
func NewEngine() *GozxingEngine {
	return &GozxingEngine{
		readers: []func() gozxing.Reader{
			func() gozxing.Reader { return qrcode.NewQRCodeReader() },
			func() gozxing.Reader { return datamatrix.NewDataMatrixReader() },
			func() gozxing.Reader { return oned.NewCode128Reader() },
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns at most one payload per reader. Readers are built per
// call since gozxing readers keep internal state.
func (e *GozxingEngine) Decode(img image.Image) (out []string) {
	defer func() {
		// gozxing can panic on degenerate bitmaps; treat as no result.
		if recover() != nil {
			out = nil
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}
	for _, newReader := range e.readers {
		res, err := newReader().Decode(bmp, e.hints)
		if err != nil || res == nil {
			continue
		}
		if text := res.GetText(); text != "" {
			out = append(out, text)
		}
	}
	return out
}
