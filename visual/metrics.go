package visual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var visionAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_vision_api_requests",
	Help: "Number of vision API requests, by feature and HTTP status code",
}, []string{"feature", "status"})

var visionAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "vernis_vision_api_duration_sec",
	Help: "Duration of vision API requests",
}, []string{"feature"})

var visionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_vision_cache_hits",
	Help: "Number of vision responses served from cache",
}, []string{"feature"})
