package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/types"
	"go.uber.org/zap"
)

type contextKey string

const contextTeacherKey contextKey = "teacher"

const internalErrorMessage = "Internal server error"

// ErrorResponse is the error payload. Clients read the message from detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse confirms an operation that returns no record.
type MessageResponse struct {
	Message string `json:"message"`
}

func withTeacher(ctx context.Context, teacher types.Teacher) context.Context {
	return context.WithValue(ctx, contextTeacherKey, teacher)
}

func teacherFromContext(ctx context.Context) (types.Teacher, bool) {
	teacher, ok := ctx.Value(contextTeacherKey).(types.Teacher)
	return teacher, ok && teacher.Username != ""
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}

// writeServiceError maps a service failure onto a status code. Errors that
// carry no client-safe message are logged and reported generically.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if reason := services.AuthReasonOf(err); reason != 0 {
		writeAuthError(w, logger, err)
		return
	}

	var message string
	if serviceErr := asServiceError(err); serviceErr != nil {
		message = serviceErr.Message
	}

	switch services.KindOf(err) {
	case services.KindInvalidInput:
		writeError(w, http.StatusBadRequest, message)
	case services.KindNotFound:
		writeError(w, http.StatusNotFound, message)
	case services.KindUnauthorized:
		writeUnauthorized(w, message)
	case services.KindInternal:
		logger.Error("announcement operation not applied", zap.Error(err))
		writeError(w, http.StatusInternalServerError, message)
	default:
		logger.Error("announcement operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func asServiceError(err error) *services.ServiceError {
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}
