package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/receiptwise/receiptwise/constants"
	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm"
	"github.com/receiptwise/receiptwise/internal/scan"
)

// maxUploadBytes caps the multipart form the scan endpoints accept.
const maxUploadBytes = 50 << 20

// handleScanReceipt runs the receipt pipeline for one uploaded image.
// Each request is an independent pipeline invocation; nothing is shared
// between in-flight scans.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.scanner.Scan(r.Context(), data)
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeScanError maps pipeline error kinds onto HTTP statuses: input
// errors are the caller's fault, provider errors are upstream, parse
// errors are a service-level failure.
func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	var provErr *llm.ProviderError
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, imaging.ErrDecode):
		writeError(w, http.StatusBadRequest, "decode_error", err.Error())
	case errors.Is(err, llm.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.As(err, &provErr):
		s.logger.Error("provider error", "status", provErr.StatusCode)
		writeError(w, http.StatusBadGateway, "provider_error", "AI service error")
	case errors.Is(err, llm.ErrTransport):
		writeError(w, http.StatusBadGateway, "transport_error", err.Error())
	case errors.Is(err, scan.ErrMalformedResponse):
		writeError(w, http.StatusInternalServerError, "malformed_response", "Failed to parse AI response")
	default:
		s.logger.Error("scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to scan receipt")
	}
}

// handleUploadReceiptImage stores nothing: it gates on the claimed
// content type and echoes the image back as a base64 data URL for the
// client to attach to an expense.
func (s *Server) handleUploadReceiptImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !constants.IsAllowedUploadType(contentType) {
		writeError(w, http.StatusBadRequest, "unsupported_format", "Unsupported file type")
		return
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	writeJSON(w, http.StatusOK, map[string]string{
		"image_data":   "data:" + contentType + ";base64," + encoded,
		"content_type": contentType,
	})
}

// readUpload extracts the "file" part from a multipart form. On failure
// it writes the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, contentType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Error parsing form")
		return nil, "", false
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "No file provided")
		return nil, "", false
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		s.logger.Error("reading upload failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "internal", "Error reading file")
		return nil, "", false
	}
	return data, header.Header.Get("Content-Type"), true
}
