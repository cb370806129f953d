package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fashnary/api/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing useful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"detail", "code"} for err. Errors that are not an
// *apperrors.AppError become a generic 500. Every 500 is logged, at info
// level when the client cancelled the request.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("an internal error occurred", err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		cause := err
		if appErr.Err != nil {
			cause = appErr.Err
		}
		level, msg := slog.LevelError, "request failed"
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			// The client went away first.
			level, msg = slog.LevelInfo, "request cancelled by client"
		}
		logger.Log(r.Context(), level, msg,
			slog.String("code", appErr.Code),
			slog.String("error", cause.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("correlation_id", CorrelationID(r.Context())),
		)
	}

	writeJSON(w, appErr.Status, appErr)
}
