package controllers

import (
	"context"
	"net/http"

	"github.com/photostream-labs/photostream-backend/api/responses"
	"github.com/photostream-labs/photostream-backend/pkg/config"
	pkgerrors "github.com/photostream-labs/photostream-backend/pkg/errors"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

const envHeader = "X-Photostream-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadyDeps are the dependencies the readiness check pings. Nil entries are skipped.
type ReadyDeps struct {
	DB    pinger
	Redis pinger
	Blobs pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, deps ReadyDeps, logg *logger.Logger) http.HandlerFunc {
	checks := []struct {
		name string
		dep  pinger
	}{
		{"db", deps.DB},
		{"redis", deps.Redis},
		{"blobs", deps.Blobs},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
