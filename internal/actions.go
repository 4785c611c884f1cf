package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/handlers"
	"label-intake-api/internal/models"
)

const maxJSONBody = 1 << 20

func (s *Server) checkEntry(w http.ResponseWriter, r *http.Request) {
	var in models.TargetRequest
	if err := decodeJSON(w, r, &in); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	rec, err := s.Service.CheckEntry(r.Context(), in)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) changeLocation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		models.TargetRequest
		LocationID *int `json:"location_id"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if in.LocationID == nil {
		handlers.WriteError(w, r, apperr.Wrap(apperr.ErrValidation, "change location", "location_id is required", nil))
		return
	}
	out, err := s.Service.ChangeLocation(r.Context(), models.ChangeLocationRequest{
		TargetRequest: in.TargetRequest,
		LocationID:    *in.LocationID,
	})
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) changeUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		models.TargetRequest
		UserID *int `json:"user_id"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	if in.UserID == nil {
		handlers.WriteError(w, r, apperr.Wrap(apperr.ErrValidation, "change user", "user_id is required", nil))
		return
	}
	out, err := s.Service.ChangeUser(r.Context(), models.ChangeUserRequest{
		TargetRequest: in.TargetRequest,
		UserID:        *in.UserID,
	})
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, out)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(apperr.ErrValidation, "decode body", "JSON body required", nil)
		}
		return apperr.Wrap(apperr.ErrValidation, "decode body", "invalid JSON", err)
	}
	return nil
}
