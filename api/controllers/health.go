package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/shelfstock-backend/api/responses"
	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
)

const (
	envHeader          = "X-Shelfstock-Env"
	readinessTimeout   = 2 * time.Second
	dependencyStatusOK = "ok"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency; nil entries are reported as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "disabled"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = err.Error()
				failed = true
				continue
			}
			checks[name] = dependencyStatusOK
		}

		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
