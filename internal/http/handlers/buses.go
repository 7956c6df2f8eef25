package handlers

import (
	"net/http"
	"strings"
	"time"

	"smartbus/internal/gtfsrt"

	"github.com/gin-gonic/gin"
)

// GET /api/buses
func ListBuses(c *gin.Context) {
	buses, err := busService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "buses": buses})
}

// GET /api/buses/search?source=&destination=
func SearchBuses(c *gin.Context) {
	res, err := busService(c).Search(c.Request.Context(), c.Query("source"), c.Query("destination"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	body := gin.H{"success": true, "buses": res.Buses}
	if res.Message != "" {
		body["message"] = res.Message
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/buses/stops
func BusStops(c *gin.Context) {
	stops, err := busService(c).StopsList(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stops": stops})
}

// GET /api/buses/route-locations
func RouteLocations(c *gin.Context) {
	locs, err := busService(c).RouteLocations(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	// same key as /stops so pickers can share parsing
	c.JSON(http.StatusOK, gin.H{"success": true, "stops": locs})
}

// GET /api/buses/locations
func BusLocations(c *gin.Context) {
	locs, err := busService(c).Locations(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "locations": locs})
}

// GET /api/buses/feed[?format=text]
func BusFeed(c *gin.Context) {
	locs, err := busService(c).Locations(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	now := time.Now()
	if d := current(); d.Now != nil {
		now = d.Now()
	}
	human := strings.EqualFold(c.Query("format"), "text")
	body, contentType, err := gtfsrt.Marshal(gtfsrt.Build(locs, now), human)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to encode feed.", err)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

// GET /api/buses/:busId/details
func BusDetails(c *gin.Context) {
	busID, ok := idParam(c, "busId", "Bus ID is required.")
	if !ok {
		return
	}
	bus, err := busService(c).Details(c.Request.Context(), busID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bus": bus})
}

// GET /api/buses/:busId/route-stops?route_id=
func BusRouteStops(c *gin.Context) {
	busID, ok := idParam(c, "busId", "Bus ID is required.")
	if !ok {
		return
	}
	out, err := timelineService(c).BusRouteStops(c.Request.Context(), busID, optionalIDQuery(c, "route_id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// GET /api/buses/test/data
func TestBusData(c *gin.Context) {
	counts, err := busService(c).TableCounts(c.Request.Context(), "buses", "routes", "stops", "drivers")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"buses_count":   counts["buses"],
			"routes_count":  counts["routes"],
			"stops_count":   counts["stops"],
			"drivers_count": counts["drivers"],
		},
	})
}

