package controllers

import (
	"net/http"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/responses"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Catering-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Catering-Env", cfg.App.Env)
		if ping != nil {
			if err := ping(); err != nil {
				responses.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
