package deeplink

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the side length in pixels of generated QR images.
const qrSize = 512

// QRPNG renders the given link as a PNG image suitable for sending through
// the gateway as a photo.
func QRPNG(link string) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
