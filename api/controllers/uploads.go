package controllers

import (
	"net/http"

	"github.com/photostream-labs/photostream-backend/api/middleware"
	"github.com/photostream-labs/photostream-backend/api/responses"
	"github.com/photostream-labs/photostream-backend/api/validators"
	"github.com/photostream-labs/photostream-backend/internal/uploads"
	pkgerrors "github.com/photostream-labs/photostream-backend/pkg/errors"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

type uploadPresignRequest struct {
	MimeType  string `json:"mime_type" validate:"required"`
	FileName  string `json:"file_name" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,min=1"`
}

// UploadPresign handles creating a pending upload and returning a signed PUT URL.
func UploadPresign(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "uploads service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload uploadPresignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Presign(r.Context(), userID, uploads.PresignInput{
			MimeType:  payload.MimeType,
			FileName:  payload.FileName,
			SizeBytes: payload.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
