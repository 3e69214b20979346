package constants

// AllowedUploadTypes is the content-type allow-list for the raw upload
// endpoint. The claimed type is untrusted; the scan pipeline sniffs the
// real format from bytes and ignores this entirely.
var AllowedUploadTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// IsAllowedUploadType reports whether a claimed content type passes the
// upload gate.
func IsAllowedUploadType(ct string) bool {
	_, ok := AllowedUploadTypes[ct]
	return ok
}
