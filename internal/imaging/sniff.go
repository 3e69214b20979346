package imaging

import "bytes"

// ContentType is a detected image media type.
type ContentType string

const (
	JPEG ContentType = "image/jpeg"
	PNG  ContentType = "image/png"
	WEBP ContentType = "image/webp"
	PDF  ContentType = "application/pdf"
)

var (
	pngSig  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegSig = []byte{0xff, 0xd8}
	riffSig = []byte("RIFF")
	webpSig = []byte("WEBP")
	pdfSig  = []byte("%PDF")
)

// Sniff detects the real content type from byte signatures, ignoring any
// client-supplied claim. Unrecognized prefixes default to JPEG; the
// subsequent decode rejects anything that isn't actually an image.
func Sniff(data []byte) ContentType {
	switch {
	case bytes.HasPrefix(data, pngSig):
		return PNG
	case bytes.HasPrefix(data, jpegSig):
		return JPEG
	case len(data) >= 12 && bytes.HasPrefix(data, riffSig) && bytes.Equal(data[8:12], webpSig):
		return WEBP
	case bytes.HasPrefix(data, pdfSig):
		return PDF
	default:
		return JPEG
	}
}
