package controllers

import (
	"net/http"
	"time"

	"github.com/shopflow-app/shopflow-backend/api/responses"
	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/internal/invoices"
	"github.com/shopflow-app/shopflow-backend/internal/parts"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
)

// Dashboard aggregates the front-desk overview: open estimate counts, the
// month's billing, parts to reorder and the latest activity.
func Dashboard(estimatesRepo estimates.Repository, partsSvc parts.Service, invoicesSvc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	type response struct {
		EstimateCounts  map[string]int64        `json:"estimate_counts"`
		Month           invoices.MonthlySummary `json:"month"`
		LowStockCount   int                     `json:"low_stock_count"`
		LowStockParts   []parts.View            `json:"low_stock_parts"`
		RecentEstimates []estimates.View        `json:"recent_estimates"`
		RecentInvoices  []invoices.View         `json:"recent_invoices"`
	}
	const recentLimit = 5

	return func(w http.ResponseWriter, r *http.Request) {
		counts := map[string]int64{}
		for _, status := range []enums.EstimateStatus{
			enums.EstimateStatusDraft,
			enums.EstimateStatusSent,
			enums.EstimateStatusApproved,
			enums.EstimateStatusInvoiced,
		} {
			count, err := estimatesRepo.CountByStatus(r.Context(), status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count estimates"))
				return
			}
			counts[status.String()] = count
		}

		lowStock, err := partsSvc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := invoicesSvc.MonthSummary(r.Context(), time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recentEstimates, err := estimatesRepo.List(r.Context(), estimates.ListFilters{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list estimates"))
			return
		}
		if len(recentEstimates) > recentLimit {
			recentEstimates = recentEstimates[:recentLimit]
		}
		estimateViews := make([]estimates.View, 0, len(recentEstimates))
		for i := range recentEstimates {
			estimateViews = append(estimateViews, estimates.NewView(&recentEstimates[i]))
		}

		recent, err := invoicesSvc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(recent) > recentLimit {
			recent = recent[:recentLimit]
		}
		views := make([]invoices.View, 0, len(recent))
		for i := range recent {
			views = append(views, invoices.NewView(&recent[i]))
		}

		lowStockPreview := lowStock
		if len(lowStockPreview) > recentLimit {
			lowStockPreview = lowStockPreview[:recentLimit]
		}
		partViews := parts.NewViews(lowStockPreview)

		responses.WriteSuccess(w, response{
			EstimateCounts:  counts,
			Month:           month,
			LowStockCount:   len(lowStock),
			LowStockParts:   partViews,
			RecentEstimates: estimateViews,
			RecentInvoices:  views,
		})
	}
}
