package share

import (
	"github.com/skip2/go-qrcode"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// DefaultQRSize is the side of a QR code image in pixels.
const DefaultQRSize = 512

// QRCode encodes link as a PNG QR code of size x size pixels.
//
// Links carry the whole state, so they get the lowest error correction
// level to fit as much as possible. A link past the QR capacity (about
// 2.9 KB) is a TOO_LARGE error; drop layers or use a state file instead.
func QRCode(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "empty link")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	q, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeTooLarge, err, "link of %d bytes does not fit a QR code", len(link))
	}
	data, err := q.PNG(size)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode qr png")
	}
	return data, nil
}
