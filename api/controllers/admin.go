package controllers

import (
	"net/http"

	"github.com/workoutbrothers/storefront-backend/api/responses"
	"github.com/workoutbrothers/storefront-backend/api/validators"
	"github.com/workoutbrothers/storefront-backend/internal/admin"
	"github.com/workoutbrothers/storefront-backend/internal/agent"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminTriggerStockCheck runs the low-stock scan synchronously.
func AdminTriggerStockCheck(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		result, err := svc.TriggerStockCheck(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":       "stock check completed",
			"lowStockCount": result.LowStockCount,
			"products":      result.Products,
		})
	}
}

// AdminTriggerReport builds the weekly report now and requests its email.
func AdminTriggerReport(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}
		report, err := svc.TriggerReport(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": "weekly report generated",
			"stats":   report,
		})
	}
}

// AdminPricing returns a rule-based price suggestion.
func AdminPricing(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload agent.PricingInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		suggestion, err := agent.SuggestPrice(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}
		responses.WriteSuccess(w, suggestion)
	}
}
