package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/service"
	"github.com/rocketscienceinc/torusgo-backend/internal/usecase"
	"github.com/rocketscienceinc/torusgo-backend/pkg/handlers"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Version int    `json:"version"`
	Error   string `json:"error"`
}

// decodeStrict fills dst from the body and rejects unknown fields, trailing
// data and bodies over maxBodyBytes. An empty body leaves dst untouched.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", apperror.ErrMalformed, err)
	}

	if decoder.More() {
		return fmt.Errorf("%w: trailing data", apperror.ErrMalformed)
	}

	return nil
}

func checkVersion(version int) error {
	if version != 0 && version != usecase.SchemaVersion {
		return fmt.Errorf("%w: unsupported version %d", apperror.ErrMalformed, version)
	}

	return nil
}

func statusFor(err error) int {
	if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrEmptySubject) {
		return http.StatusUnauthorized
	}

	switch kind, _ := apperror.Classify(err); kind {
	case apperror.KindMalformed:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := handlers.WriteJSON(w, status, payload); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		message = "Internal Server Error"
	} else if _, reason := apperror.Classify(err); status != http.StatusBadRequest {
		message = reason
	}

	that.writeJSON(w, status, errorResponse{Version: usecase.SchemaVersion, Error: message})
}
