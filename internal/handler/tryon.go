package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fashnary/api/internal/apperrors"
	"fashnary/api/internal/service/tryon"

	"github.com/go-playground/validator/v10"
)

type TryOnResponse struct {
	GeneratedImageBase64 string `json:"generated_image_base64"`
	MimeType             string `json:"mimetype"`
	Prompt               string `json:"prompt"`
	Synthesized          bool   `json:"synthesized"`
}

// GenerateTryOn handles POST /api/v1/tryon/generate
func (h *Handler) GenerateTryOn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)

	var req tryon.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apperrors.InvalidArgument(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeError(w, r, h.logger, apperrors.InvalidArgument("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}

	res, err := h.tryon.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, tryOnError(err))
		return
	}

	writeJSON(w, http.StatusOK, TryOnResponse{
		GeneratedImageBase64: res.ImageDataURL,
		MimeType:             res.MimeType,
		Prompt:               res.Prompt,
		Synthesized:          res.Synthesized,
	})
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.InvalidArgument(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		default:
			fields[fe.Field()] = fmt.Sprintf("failed on '%s' validation", fe.Tag())
		}
	}
	return apperrors.Validation("request validation failed", fields)
}

func tryOnError(err error) error {
	var valErr *tryon.ValidationError
	var upErr *tryon.UpstreamError

	switch {
	case errors.Is(err, tryon.ErrMisconfigured):
		return apperrors.Misconfigured(tryon.MisconfiguredMessage)
	case errors.As(err, &valErr):
		return apperrors.InvalidArgument(valErr.Error())
	case errors.As(err, &upErr):
		return apperrors.Upstream(upErr.Detail, err)
	default:
		return apperrors.Internal("an internal error occurred", err)
	}
}
