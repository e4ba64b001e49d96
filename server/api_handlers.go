package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxToolBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type toolResponse struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

// GamingImagesHandler returns the themed image collections used by the landing pages
func (s *Server) GamingImagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.gallery == nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrNotConfigured, "image gallery"))
			return
		}
		images, err := s.gallery.GamingImages(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, images)
	}
}

// ToolCallHandler runs a tool by name with the JSON object body as its arguments
func (s *Server) ToolCallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.tools == nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrNotConfigured, "tools"))
			return
		}
		name := r.PathValue("name")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxToolBody))
		if err != nil {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidInput, "read body"))
			return
		}
		args := map[string]interface{}{}
		if len(bytes.TrimSpace(body)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			if err := dec.Decode(&args); err != nil {
				writeError(w, apperrors.Wrapf(apperrors.ErrInvalidInput, "arguments must be a JSON object"))
				return
			}
		}

		result, err := s.tools.Call(r.Context(), name, args)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toolResponse{Tool: name, Result: result})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// statusFor maps the error sentinels onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnknownTool), errors.Is(err, apperrors.ErrNoteNotFound), errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrMissingArguments), errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("api request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
