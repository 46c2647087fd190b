package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves health and liveness endpoints. Health is public:
// the dashboard and the deployment probes hit it without credentials.
type SystemHandler struct {
	startTime  time.Time
	internalDB Pinger
	catalogDB  Pinger
}

// NewSystemHandler creates a new SystemHandler. Either pinger may be nil,
// in which case that store is skipped in the health report.
func NewSystemHandler(internalDB, catalogDB Pinger) *SystemHandler {
	return &SystemHandler{
		startTime:  time.Now(),
		internalDB: internalDB,
		catalogDB:  catalogDB,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// HealthResponse reports service and store health
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	GoVersion string            `json:"goVersion"`
	Uptime    string            `json:"uptime"`
	Stores    map[string]string `json:"stores,omitempty"`
}

// Health reports liveness of the service and its two databases. A
// degraded catalog store still returns 200 so the dashboard stays usable;
// only a dead internal store fails the probe.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Stores:    map[string]string{},
	}

	status := http.StatusOK

	if h.internalDB != nil {
		if err := h.internalDB.Ping(); err != nil {
			resp.Stores["internal"] = "unreachable"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			resp.Stores["internal"] = "ok"
		}
	}

	if h.catalogDB != nil {
		if err := h.catalogDB.Ping(); err != nil {
			resp.Stores["catalog"] = "unreachable"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Stores["catalog"] = "ok"
		}
	}

	c.JSON(status, resp)
}
