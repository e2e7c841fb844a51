package controllers

import (
	"net/http"

	"github.com/averroes-labs/storefront-gateway/api/responses"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	redispkg "github.com/averroes-labs/storefront-gateway/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness. The cache is the only local dependency;
// the remote backend is probed per request, not here, so a flapping
// upstream does not take the gateway out of rotation.
func HealthReady(cfg *config.Config, logg *logger.Logger, cache redispkg.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		status := map[string]string{"status": "ready", "cache": "skipped"}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unavailable"))
				return
			}
			status["cache"] = "ok"
		}
		responses.WriteSuccess(w, status)
	}
}
