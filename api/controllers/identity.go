package controllers

import (
	"net/http"

	"github.com/photostream-labs/photostream-backend/api/responses"
	"github.com/photostream-labs/photostream-backend/internal/identity"
)

// IdentityCreate mints a fresh anonymous identity. The client persists the
// returned id and name and sends them back on every request.
func IdentityCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccessStatus(w, http.StatusCreated, identity.New())
	}
}
