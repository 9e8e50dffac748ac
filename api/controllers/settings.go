package controllers

import (
	"net/http"

	"github.com/shopflow-app/shopflow-backend/api/responses"
	"github.com/shopflow-app/shopflow-backend/api/validators"
	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

func SettingsList(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.All(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, all)
	}
}

func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	type request struct {
		Key   string `json:"key" validate:"required,max=100"`
		Value string `json:"value" validate:"required,max=255"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var input request
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Set(r.Context(), input.Key, input.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{input.Key: input.Value})
	}
}
