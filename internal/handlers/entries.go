package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/models"
)

// EntryService is the part of the intake service behind the upload routes.
type EntryService interface {
	AddEntry(ctx context.Context, req models.EntryRequest) (*models.EntryResult, error)
	ScanQR(ctx context.Context, image []byte) (*models.ScanResult, error)
}

// EntriesHandler handles label photo uploads
type EntriesHandler struct {
	Service  EntryService
	MaxBytes int64
}

// NewEntriesHandler creates a new entries handler
func NewEntriesHandler(svc EntryService, maxBytes int64) *EntriesHandler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20 // 20 MB
	}
	return &EntriesHandler{Service: svc, MaxBytes: maxBytes}
}

// AddEntry reads spec_image, optional qr_image, item_type and item_id and
// creates or updates the matching inventory record.
func (h *EntriesHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		WriteError(w, r, err)
		return
	}

	spec, err := readFile(r, "spec_image")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if len(spec) == 0 {
		WriteError(w, r, apperr.Wrap(apperr.ErrValidation, "add entry", "spec_image is required", nil))
		return
	}
	qr, err := readFile(r, "qr_image")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	req := models.EntryRequest{
		SpecImage: spec,
		QRImage:   qr,
		ItemType:  strings.TrimSpace(r.FormValue("item_type")),
	}
	if v := strings.TrimSpace(r.FormValue("item_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			WriteError(w, r, apperr.Wrap(apperr.ErrValidation, "add entry", "item_id must be a positive integer", nil))
			return
		}
		req.ItemID = &id
	}

	result, err := h.Service.AddEntry(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, result)
}

// ScanQR decodes the uploaded code image. A photo without a readable code
// yields {"qr_value": null}.
func (h *EntriesHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		WriteError(w, r, err)
		return
	}

	image, err := readFile(r, "file")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if len(image) == 0 {
		if image, err = readFile(r, "image"); err != nil {
			WriteError(w, r, err)
			return
		}
	}

	result, err := h.Service.ScanQR(r.Context(), image)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *EntriesHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	// Limit body size
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	// Require multipart
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		return apperr.Wrap(apperr.ErrValidation, "upload", "content-type must be multipart/form-data", nil)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.ErrValidation, "upload", fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), nil)
		}
		return apperr.Wrap(apperr.ErrValidation, "upload", "invalid multipart form", err)
	}
	return nil
}

// readFile returns the named part, or nil when it was not sent.
func readFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "upload", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "upload", "read "+field, err)
	}
	return data, nil
}
