package handlers

import (
	"errors"
	"net/http"

	"smartbus/internal/http/middleware"
	"smartbus/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/routes
func ListRoutes(c *gin.Context) {
	routes, err := timelineService(c).ListRoutes(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Server error while fetching routes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"routes": routes}})
}

// GET /api/routes/:routeId/stops
func RouteStops(c *gin.Context) {
	routeID, ok := idParam(c, "routeId", "Route ID is required.")
	if !ok {
		return
	}
	out, err := timelineService(c).RouteStops(c.Request.Context(), routeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// GET /api/routes/bus/:busId/timeline?route_id=
func BusTimeline(c *gin.Context) {
	busID, ok := idParam(c, "busId", "Bus ID is required.")
	if !ok {
		return
	}
	out, err := timelineService(c).BusTimeline(c.Request.Context(), busID, optionalIDQuery(c, "route_id"))
	if errors.Is(err, services.ErrNoRouteForBus) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":    false,
			"message":    err.Error(),
			"suggestion": services.NoRouteSuggestion,
			"request_id": middleware.GetRequestID(c),
		})
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// GET /api/routes/bus/:busId/timeline/pdf?route_id=
func BusTimelinePDF(c *gin.Context) {
	busID, ok := idParam(c, "busId", "Bus ID is required.")
	if !ok {
		return
	}
	svc := services.DocsService{
		Timeline:  timelineService(c),
		RequestID: middleware.GetRequestID(c),
	}
	pdfBytes, filename, err := svc.TimelinePDF(c.Request.Context(), busID, optionalIDQuery(c, "route_id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GET /api/routes/test-db
func TestDB(c *gin.Context) {
	counts, err := busService(c).TableCounts(c.Request.Context(), "routes", "stops", "buses", "users")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Database connection failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Connected to database successfully!",
		"table_counts": counts,
	})
}
