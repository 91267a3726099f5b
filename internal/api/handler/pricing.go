package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/pkosov/masterdesk/internal/api/response"
	"github.com/pkosov/masterdesk/internal/pricing"
)

// PriceEstimator defines the pricing operations the handlers depend on.
type PriceEstimator interface {
	Estimate(ctx context.Context, description, category string) pricing.Quote
	EstimateFactors(f pricing.Factors) pricing.Quote
}

// NewEstimateHandler returns the handler for POST /api/v1/pricing/estimate.
// The request carries either structured factors or a free-text description;
// structured factors win when both are present.
func NewEstimateHandler(svc PriceEstimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description string           `json:"description"`
			Category    string           `json:"category"`
			Factors     *pricing.Factors `json:"factors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Factors != nil {
			response.JSON(w, svc.EstimateFactors(*req.Factors))
			return
		}

		if req.Description == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "description or factors is required", nil)
			return
		}

		response.JSON(w, svc.Estimate(r.Context(), req.Description, req.Category))
	}
}

// NewTemplatesHandler returns the handler for GET /api/v1/pricing/templates:
// the quick-order templates with their current prices.
func NewTemplatesHandler() http.HandlerFunc {
	type templateView struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Category    string        `json:"category"`
		Quote       pricing.Quote `json:"quote"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		names := pricing.TemplateNames()
		sort.Strings(names)

		views := make([]templateView, 0, len(names))
		for _, name := range names {
			f, _ := pricing.Template(name)
			views = append(views, templateView{
				Name:        name,
				Description: f.Description,
				Category:    string(f.Category),
				Quote:       pricing.Calculate(f),
			})
		}
		response.JSON(w, views)
	}
}

// NewTemplateQuoteHandler returns the handler for
// POST /api/v1/pricing/templates/{name}: a quote from one named template.
func NewTemplateQuoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		f, ok := pricing.Template(name)
		if !ok {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Unknown template", nil)
			return
		}
		response.JSON(w, pricing.Calculate(f))
	}
}
