package controllers

import (
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/responses"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/redis"
)

const envHeader = "X-Delices-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		var combined error
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("postgres: %w", err))
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				combined = multierr.Append(combined, fmt.Errorf("redis: %w", err))
			}
		}

		if combined != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "dependencies not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
