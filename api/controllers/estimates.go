package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopflow-app/shopflow-backend/api/responses"
	"github.com/shopflow-app/shopflow-backend/api/validators"
	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

func EstimatesList(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := estimates.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEstimateStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id must be a uuid"))
				return
			}
			filters.CustomerID = &customerID
		}
		filters.Query = strings.TrimSpace(r.URL.Query().Get("q"))

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]estimates.View, 0, len(list))
		for i := range list {
			views = append(views, estimates.NewView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func EstimatesCreate(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input estimates.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, estimates.NewView(estimate))
	}
}

func EstimatesGet(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimates.NewView(estimate))
	}
}

func EstimatesUpdate(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input estimates.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimates.NewView(estimate))
	}
}

func EstimatesDelete(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// EstimatesSend publishes a draft estimate and returns the share token with
// the refreshed document.
func EstimatesSend(svc estimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.Send(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimates.NewView(estimate))
	}
}
