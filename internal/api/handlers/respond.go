package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
)

const OwnerHeader = "X-User-Id"

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// OwnerID returns the caller's owner id, or "" when the header is missing.
func OwnerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(OwnerHeader))
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, action string, err error) {
	WriteJSON(w, statusFor(err), map[string]string{
		"error": "Error trying to " + action + ": " + err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidTask),
		errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrMissingOwner),
		errors.Is(err, service.ErrInvalidTurn),
		errors.Is(err, service.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMalformedGeneration),
		errors.Is(err, client.ErrGatewayUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON body into dst. Failures are written to w and
// reported as false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error trying to read the body: " + err.Error(),
		})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return false
	}
	return true
}
