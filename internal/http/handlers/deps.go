package handlers

import (
	"sync"
	"time"

	"smartbus/internal/http/middleware"
	"smartbus/internal/realtime"
	"smartbus/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the process-wide collaborators handlers need besides the DB.
type Deps struct {
	Hub       *realtime.Hub
	StopCache *services.StopCache
	JWTSecret []byte
	JWTTTL    time.Duration
	UploadDir string
	Now       func() time.Time
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure installs the dependencies used by every handler.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

// broadcaster returns the hub as a services.Broadcaster, or nil when no hub
// is configured (a nil *Hub must not become a non-nil interface).
func (d Deps) broadcaster() services.Broadcaster {
	if d.Hub == nil {
		return nil
	}
	return d.Hub
}

func authService(c *gin.Context) services.AuthService {
	d := current()
	return services.AuthService{
		Secret:    d.JWTSecret,
		TTL:       d.JWTTTL,
		Now:       d.Now,
		RequestID: middleware.GetRequestID(c),
	}
}

func busService(c *gin.Context) services.BusService {
	return services.BusService{RequestID: middleware.GetRequestID(c)}
}

func timelineService(c *gin.Context) services.TimelineService {
	d := current()
	return services.TimelineService{
		Cache:     d.StopCache,
		Now:       d.Now,
		RequestID: middleware.GetRequestID(c),
	}
}

func notificationService(c *gin.Context) services.NotificationService {
	return services.NotificationService{
		Hub:       current().broadcaster(),
		RequestID: middleware.GetRequestID(c),
	}
}

func reportService(c *gin.Context) services.ReportService {
	return services.ReportService{RequestID: middleware.GetRequestID(c)}
}
