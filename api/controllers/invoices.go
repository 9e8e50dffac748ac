package controllers

import (
	"net/http"

	"github.com/shopflow-app/shopflow-backend/api/responses"
	"github.com/shopflow-app/shopflow-backend/internal/invoices"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

// EstimatesConvert runs the estimate-to-invoice pipeline and returns the new
// invoice plus any stock warnings raised while deducting parts.
func EstimatesConvert(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	type response struct {
		Invoice  invoices.View           `json:"invoice"`
		Warnings []invoices.StockWarning `json:"warnings"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Convert(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, response{
			Invoice:  invoices.NewView(result.Invoice),
			Warnings: result.Warnings,
		})
	}
}

// EstimatesStockWarnings previews shortfalls without converting.
func EstimatesStockWarnings(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warnings, err := svc.StockWarnings(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warnings)
	}
}

func InvoicesList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]invoices.View, 0, len(list))
		for i := range list {
			views = append(views, invoices.NewView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func InvoicesGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices.NewView(invoice))
	}
}

// InvoicesNotify triggers the ready-for-pickup message. Safe to repeat.
func InvoicesNotify(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePathID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Notify(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices.NewView(invoice))
	}
}
