package certificate

import (
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// qrDark matches the slate tone the print layout uses (#0f172a on white).
var (
	qrDark  = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	qrLight = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// VerifyURL builds the absolute URL a scanned certificate resolves to.
// The submission id rides in the verify query parameter in plain text.
func VerifyURL(baseURL, id string) string {
	return fmt.Sprintf("%s/?verify=%s", baseURL, id)
}

// QRPNG encodes the verification URL as a two-tone PNG of the given pixel
// size.
func QRPNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 100
	}
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode verification qr: %w", err)
	}
	code.ForegroundColor = qrDark
	code.BackgroundColor = qrLight
	png, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("render verification qr: %w", err)
	}
	return png, nil
}
