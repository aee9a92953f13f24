package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/workoutbrothers/storefront-backend/api/responses"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "env": cfg.App.Env})
	}
}

// HealthReady pings the database and redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger db.Pinger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed error
		if dbPinger != nil {
			if err := dbPinger.Ping(ctx); err != nil {
				checks["database"] = "down"
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable")
			} else {
				checks["database"] = "ok"
			}
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				checks["redis"] = "down"
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable")
			} else {
				checks["redis"] = "ok"
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.As(failed).WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "env": cfg.App.Env, "checks": checks})
	}
}
