package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/featurepulse/backend/internal/services"
)

var (
	analyticsService *services.AnalyticsService
	chartCache       = &services.CacheService{}
)

// InitAnalyticsHandlers wires the analytics query service.
func InitAnalyticsHandlers(analytics *services.AnalyticsService) {
	analyticsService = analytics
}

func filtersFromQuery(r *http.Request) services.Filters {
	q := r.URL.Query()
	return services.Filters{
		Age:       q.Get("age"),
		Gender:    services.NormalizeGender(q.Get("gender")),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
}

// GetBarData returns the six-measure totals for the bar chart.
// GET /api/bar-data?age=&gender=&startDate=&endDate=
func GetBarData(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)

	// Cache key mirrors the normalized filter set, so "male" and "Male"
	// land on the same entry
	cacheKey := fmt.Sprintf("bar:%s:%s:%s:%s",
		filters.Age, filters.Gender, filters.StartDate, filters.EndDate)

	var cached json.RawMessage
	if chartCache.Get(r.Context(), cacheKey, &cached) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	data, err := analyticsService.Summary(r.Context(), filters)
	if err != nil {
		log.Printf("bar-data: %v", err)
		jsonError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	chartCache.Set(r.Context(), cacheKey, data, services.SummaryCacheTTL)
	writeJSON(w, http.StatusOK, data)
}

// GetLineChartData returns the per-day totals of one measure for the line chart.
// GET /api/line-chart-data?feature=&age=&gender=&startDate=&endDate=
func GetLineChartData(w http.ResponseWriter, r *http.Request) {
	feature := r.URL.Query().Get("feature")
	if feature == "" {
		jsonError(w, http.StatusBadRequest, "Missing required 'feature' query parameter")
		return
	}

	data, err := analyticsService.Timeseries(r.Context(), feature, filtersFromQuery(r))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownFeature):
			jsonError(w, http.StatusBadRequest, "Unknown feature: must be one of A-F")
		case errors.Is(err, services.ErrNoData):
			jsonError(w, http.StatusNotFound, "No data found for the given parameters")
		default:
			log.Printf("line-chart-data: %v", err)
			jsonError(w, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}

	writeJSON(w, http.StatusOK, data)
}
