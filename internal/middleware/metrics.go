package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devconnect_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ActiveWebSockets is the number of open activity feed connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devconnect_active_websockets",
		Help: "Number of open websocket connections",
	})
)

var (
	promOnce      sync.Once
	promCollector *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the HTTP metrics collector for serviceName. Collectors
// are registered once per process; later calls return the first instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promCollector = fiberprometheus.New(serviceName)
	})
	return promCollector
}

// MetricsMiddleware records request count and latency for every route.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
