package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/idempotency"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor сопоставляет доменную ошибку HTTP-статусу.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsVersionConflict(err),
		errors.Is(err, domain.ErrBeerInUse),
		errors.Is(err, domain.ErrCustomerHasOrders),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrIdempotencyHashMismatch),
		errors.Is(err, idempotency.ErrRequestInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет ошибку в едином формате: список ошибок полей для 400
// и {"error": ...} для остального. Текст 500 наружу не отдаётся.
func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		fields := domain.FieldErrors(err)
		if fields == nil {
			fields = []domain.FieldError{}
		}
		writeJSON(w, logger, status, fields)
	case http.StatusInternalServerError:
		logger.WithError(err).Error("request failed")
		writeJSON(w, logger, status, errorBody{Error: http.StatusText(status)})
	default:
		writeJSON(w, logger, status, errorBody{Error: message(err)})
	}
}

// message отдаёт клиенту текст корневой доменной ошибки без внутренних префиксов.
func message(err error) string {
	for _, known := range []error{
		domain.ErrBeerNotFound,
		domain.ErrCategoryNotFound,
		domain.ErrCustomerNotFound,
		domain.ErrOrderNotFound,
		domain.ErrVersionConflict,
		domain.ErrBeerInUse,
		domain.ErrCustomerHasOrders,
		domain.ErrAlreadyExists,
		domain.ErrIdempotencyHashMismatch,
		idempotency.ErrRequestInProgress,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, logger *log.Entry, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("write response body")
	}
}

func notFoundHandler(logger *log.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusNotFound, errorBody{Error: "resource not found"})
	})
}

func methodNotAllowedHandler(logger *log.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})
}
