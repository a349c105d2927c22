// Package qr renders share links as QR code PNGs and reads them back from images.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // photos of printed codes
	"image/png"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DefaultSize is the edge length in pixels of rendered codes.
const DefaultSize = 320

// ErrNoCode is returned when an image contains no readable QR code.
var ErrNoCode = errors.New("no qr code found")

// Codec encodes and decodes QR images.
type Codec struct {
	Size  int
	Dark  color.Color
	Light color.Color
}

// NewCodec returns a codec drawing black modules on white.
func NewCodec() *Codec {
	return &Codec{Size: DefaultSize, Dark: color.Black, Light: color.White}
}

// Encode returns a PNG of text with a one module quiet zone.
func (c *Codec) Encode(text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr: empty payload")
	}
	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 1,
	}
	m, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	img := image.NewPaletted(image.Rect(0, 0, m.GetWidth(), m.GetHeight()), color.Palette{c.Light, c.Dark})
	for y := 0; y < m.GetHeight(); y++ {
		for x := 0; x < m.GetWidth(); x++ {
			if m.Get(x, y) {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeImage reads the first QR code in a PNG or JPEG image. Light-on-dark
// codes are handled by retrying on the inverted image.
func (c *Codec) DecodeImage(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("qr: read image: %w", err)
	}
	src := gozxing.NewLuminanceSourceFromImage(img)
	text, err := decode(src)
	if err == nil {
		return text, nil
	}
	if text, ierr := decode(src.Invert()); ierr == nil {
		return text, nil
	}
	return "", ErrNoCode
}

func decode(src gozxing.LuminanceSource) (string, error) {
	bmp, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(src))
	if err != nil {
		return "", err
	}
	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	return res.GetText(), nil
}

// ParseScan extracts a share id from scanned text. A URL with a /card/<id>
// path yields <id> as it appears in the URL (still escaped); anything else is
// returned trimmed as-is. Scheme-less host:port/card/<id> text parses with the
// host as scheme, so the opaque part is searched too.
func ParseScan(raw string) string {
	text := strings.TrimSpace(raw)
	u, err := url.Parse(text)
	if err != nil || u.Scheme == "" {
		return text
	}
	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	for i, p := range parts {
		if p == "card" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return text
}

// ParseHexColor parses #rrggbb.
func ParseHexColor(s string) (color.Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return nil, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
