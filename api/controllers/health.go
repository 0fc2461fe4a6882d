package controllers

import (
	"net/http"

	"github.com/dmarquezluna/stockroom-backend/api/responses"
	"github.com/dmarquezluna/stockroom-backend/pkg/config"
	"github.com/dmarquezluna/stockroom-backend/pkg/db"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/redis"
)

const envHeader = "X-Stockroom-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not reachable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not reachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
