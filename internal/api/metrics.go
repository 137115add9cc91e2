package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	gapsFound    prometheus.Histogram
	unlockable   prometheus.Histogram
	historySaved prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarpath_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "scholarpath_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"route"},
		),
		gapsFound: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scholarpath_gaps_per_analysis",
			Help:    "Number of aggregated gaps found per analysis",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		unlockable: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scholarpath_unlockable_scholarships",
			Help:    "Unique scholarships unlockable per analysis",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		historySaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "scholarpath_history_records_saved_total",
			Help: "Total number of analyses saved to history",
		}),
	}
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(time.Since(started).Seconds())
	}
}
