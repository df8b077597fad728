package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Domain
	RecipeChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_changes_total",
			Help: "Recipes created, updated and deleted",
		},
		[]string{"action"},
	)

	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_membership_changes_total",
			Help: "Favourite, shopping cart and follow rows added or removed",
		},
		[]string{"relation", "action"},
	)

	ShoppingListDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Shopping lists rendered per output format",
		},
		[]string{"format"},
	)

	IngredientsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_ingredients_loaded_total",
			Help: "Ingredient rows processed by the CSV loader",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func RecordRecipeChange(action string) {
	RecipeChanges.WithLabelValues(action).Inc()
}

func RecordMembershipChange(relation, action string) {
	MembershipChanges.WithLabelValues(relation, action).Inc()
}
