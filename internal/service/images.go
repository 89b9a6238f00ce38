package service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hppanpaliya/FairShare-AI/internal/billing"
)

// UploadField is the multipart form field carrying the bill image.
const UploadField = "billImage"

// ImageHandler serves bill images over plain HTTP for <img> tags and
// browser form uploads:
//
//	GET  /bills/{eventID}/image
//	POST /bills/{eventID}/image   (multipart, field "billImage")
type ImageHandler struct {
	billing  *billing.Service
	maxBytes int64
}

func NewImageHandler(b *billing.Service, maxBytes int64) *ImageHandler {
	if maxBytes <= 0 {
		maxBytes = billing.DefaultMaxImageBytes
	}
	return &ImageHandler{billing: b, maxBytes: maxBytes}
}

// Register mounts the image routes on mux.
func (h *ImageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /bills/{eventID}/image", h.get)
	mux.HandleFunc("POST /bills/{eventID}/image", h.upload)
}

func (h *ImageHandler) get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	data, contentType, err := h.billing.BillImage(r.Context(), eventID)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = w.Write(data)
}

func (h *ImageHandler) upload(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	// leave room for multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+64<<10)
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "bill image too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "missing "+UploadField+" file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	ev, err := h.billing.AttachBillImage(r.Context(), eventID, billing.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	body, err := JSONCodec{}.Marshal(BillImageResponse{Event: *ev})
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Failed to write upload response", "event_id", eventID, "error", err)
	}
}

func writeHTTPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, billing.ErrExternalService):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		slog.Error("Image request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
