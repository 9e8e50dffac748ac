package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopflow-app/shopflow-backend/api/middleware"
	"github.com/shopflow-app/shopflow-backend/api/responses"
	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

func publicToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
	}
	return token, nil
}

// PublicEstimateShow serves the customer's view of a shared estimate. The
// token is the only credential; internal identifiers stay hidden.
func PublicEstimateShow(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := publicToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.FindByToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimates.NewPublicView(estimate))
	}
}

// PublicEstimateApprove records the customer's acceptance along with the
// client address for the audit trail. Repeat taps succeed without rewriting
// the original approval; the response flags them as already approved.
func PublicEstimateApprove(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := publicToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Approve(r.Context(), token, middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimates.NewApprovalView(result))
	}
}
