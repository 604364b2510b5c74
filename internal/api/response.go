package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Foreman/internal/engine"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInvalidState       ErrorCode = "INVALID_STATE"
	ErrCodeDependencyUnmet    ErrorCode = "DEPENDENCY_UNMET"
	ErrCodeSequenceViolation  ErrorCode = "SEQUENCE_VIOLATION"
	ErrCodeActiveTaskExists   ErrorCode = "ACTIVE_TASK_EXISTS"
	ErrCodeOutsideGeofence    ErrorCode = "OUTSIDE_GEOFENCE"
	ErrCodeProgressDecrease   ErrorCode = "PROGRESS_DECREASE"
	ErrCodePhotoLimit         ErrorCode = "PHOTO_LIMIT_EXCEEDED"
	ErrCodeNotCheckedIn       ErrorCode = "NOT_CHECKED_IN"
	ErrCodeConcurrentModified ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Details — структурированная детализация отказа гейта
	// (незавершённые зависимости, блокирующие задачи, дистанция).
	Details any `json:"details,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	ErrorWithDetails(w, status, code, message, nil)
}

// ErrorWithDetails отправляет ответ с ошибкой и детализацией.
func ErrorWithDetails(w http.ResponseWriter, status int, code ErrorCode, message string, details any) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, code ErrorCode, message string) {
	Error(w, http.StatusConflict, code, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleEngineError преобразует ошибку движка в HTTP ответ.
// Возвращает true, если ошибка была обработана.
func HandleEngineError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	// Отказы гейтов отдаём со структурированной детализацией.
	var depErr *engine.DependencyError
	if errors.As(err, &depErr) {
		ErrorWithDetails(w, http.StatusConflict, ErrCodeDependencyUnmet, err.Error(), depErr.Result)
		return true
	}

	var seqErr *engine.SequenceError
	if errors.As(err, &seqErr) {
		ErrorWithDetails(w, http.StatusConflict, ErrCodeSequenceViolation, err.Error(), seqErr.Result)
		return true
	}

	var geoErr *engine.GeofenceError
	if errors.As(err, &geoErr) {
		ErrorWithDetails(w, http.StatusConflict, ErrCodeOutsideGeofence, err.Error(), geoErr.Result)
		return true
	}

	switch {
	case errors.Is(err, engine.ErrValidation):
		BadRequest(w, err.Error())
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrProjectNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, engine.ErrInvalidTask):
		BadRequest(w, err.Error())
	case errors.Is(err, engine.ErrDuplicateAssignment):
		Conflict(w, ErrCodeConflict, err.Error())
	case errors.Is(err, engine.ErrStateConflict):
		InvalidState(w, err.Error())
	case errors.Is(err, engine.ErrConcurrentActiveTask):
		Conflict(w, ErrCodeActiveTaskExists, err.Error())
	case errors.Is(err, engine.ErrProgressDecrease):
		Conflict(w, ErrCodeProgressDecrease, err.Error())
	case errors.Is(err, engine.ErrPhotoLimitExceeded):
		Conflict(w, ErrCodePhotoLimit, err.Error())
	case errors.Is(err, engine.ErrConcurrencyConflict):
		Conflict(w, ErrCodeConcurrentModified, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}
