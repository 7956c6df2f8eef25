package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
	"smartbus/internal/utils"
)

// Default map centre (Chandigarh) used for buses without a fix.
const (
	centreLat = 30.7333
	centreLon = 76.7794
)

type RouteRef struct {
	RouteID     int64    `json:"route_id"`
	RouteName   string   `json:"route_name"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	DistanceKm  *float64 `json:"distance_km"`
}

type BusView struct {
	BusID           int64            `json:"bus_id"`
	BusNumber       string           `json:"bus_number"`
	Capacity        int              `json:"capacity"`
	Status          string           `json:"status"`
	Route           *RouteRef        `json:"route"`
	Driver          *models.Driver   `json:"driver"`
	CurrentLocation *models.Location `json:"current_location"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchBus is one search result card.
type SearchBus struct {
	ID              int64      `json:"id"`
	BusID           int64      `json:"bus_id"`
	BusNumber       string     `json:"bus_number"`
	BusLabel        string     `json:"busId"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	Capacity        int        `json:"capacity"`
	RouteID         int64      `json:"route_id"`
	RouteName       string     `json:"route_name"`
	Route           string     `json:"route"`
	SourceStop      string     `json:"source_stop"`
	DestinationStop string     `json:"destination_stop"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	DistanceKm      float64    `json:"distance_km"`
	DriverID        *int64     `json:"driver_id"`
	DriverName      string     `json:"driver_name"`
	DriverMobile    *string    `json:"driver_mobile"`
	ETA             string     `json:"eta"`
	Coordinate      Coordinate `json:"coordinate"`
	CurrentLocation string     `json:"current_location"`
	ImageURL        int        `json:"imageUrl"`
	ChangeInfo      string     `json:"changeInfo"`
}

type SearchResult struct {
	Buses   []SearchBus `json:"buses"`
	Message string      `json:"message,omitempty"`
}

// StopView is shared by the stop picker and the route-location picker.
// StopID is numeric for stops and "location_<name>" for route locations.
type StopView struct {
	StopID      any      `json:"stop_id"`
	StopName    string   `json:"stop_name"`
	Location    string   `json:"location"`
	Region      string   `json:"region"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RoutesCount int      `json:"routes_count"`
}

type BusService struct {
	Buses     repositories.BusRepository
	Routes    repositories.RouteRepository
	Stops     repositories.StopRepository
	Jitter    func() float64
	RequestID string
}

func (s BusService) jitter() float64 {
	if s.Jitter != nil {
		return s.Jitter()
	}
	return rand.Float64()
}

func routeRef(r *models.Route) *RouteRef {
	if r == nil {
		return nil
	}
	return &RouteRef{
		RouteID:     r.RouteID,
		RouteName:   r.Name(),
		Source:      r.SourceName,
		Destination: r.DestinationName,
		DistanceKm:  r.TotalDistanceKm,
	}
}

func busView(a models.BusAssignment) BusView {
	return BusView{
		BusID:           a.BusID,
		BusNumber:       a.BusNumber,
		Capacity:        a.Capacity,
		Status:          a.Status,
		Route:           routeRef(a.Route),
		Driver:          a.Driver,
		CurrentLocation: a.Location,
	}
}

func (s BusService) List(ctx context.Context) ([]BusView, error) {
	rows, err := s.Buses.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BusView, 0, len(rows))
	for _, a := range rows {
		// the listing only exposes name and mobile
		if a.Driver != nil {
			a.Driver = &models.Driver{Name: a.Driver.Name, Mobile: a.Driver.Mobile}
		}
		out = append(out, busView(a))
	}
	return out, nil
}

func (s BusService) Details(ctx context.Context, busID int64) (BusView, error) {
	a, err := s.Buses.GetDetails(ctx, busID)
	if err != nil {
		return BusView{}, err
	}
	return busView(a), nil
}

// Search returns every available/running bus when at least one route
// matches. Buses on an open session keep their route; the others are spread
// over the matching routes by position.
func (s BusService) Search(ctx context.Context, source, destination string) (SearchResult, error) {
	source, destination = strings.TrimSpace(source), strings.TrimSpace(destination)
	if source == "" || destination == "" {
		return SearchResult{}, domain.ValidationError{Msg: "Source and destination are required."}
	}
	matching, err := s.Routes.Search(ctx, source, destination)
	if err != nil {
		return SearchResult{}, err
	}
	if len(matching) == 0 {
		return SearchResult{
			Buses:   []SearchBus{},
			Message: fmt.Sprintf("No direct routes found from %s to %s", source, destination),
		}, nil
	}
	buses, err := s.Buses.ListForSearch(ctx)
	if err != nil {
		return SearchResult{}, err
	}

	out := make([]SearchBus, 0, len(buses))
	for i, b := range buses {
		route := matching[i%len(matching)]
		if b.Route != nil {
			route = *b.Route
		}
		out = append(out, s.searchCard(i, b, route))
	}
	utils.LogEvent(s.RequestID, "buses", "search",
		fmt.Sprintf("source=%s destination=%s routes=%d buses=%d", source, destination, len(matching), len(out)))
	return SearchResult{Buses: out}, nil
}

func (s BusService) searchCard(i int, b models.BusAssignment, route models.Route) SearchBus {
	status := "active"
	if b.Status == domain.BusAvailable {
		status = domain.BusAvailable
	}
	eta := "Ready"
	if b.Status == domain.BusRunning {
		eta = "On Route"
	}
	card := SearchBus{
		ID:              b.BusID,
		BusID:           b.BusID,
		BusNumber:       b.BusNumber,
		BusLabel:        b.BusNumber,
		Status:          status,
		Type:            b.Status,
		Capacity:        b.Capacity,
		RouteID:         route.RouteID,
		RouteName:       route.Name(),
		Route:           route.Name(),
		SourceStop:      route.SourceName,
		DestinationStop: route.DestinationName,
		From:            route.SourceName,
		To:              route.DestinationName,
		DistanceKm:      route.DistanceOr(0),
		DriverID:        b.CurrentDriverID,
		DriverName:      "Not Assigned",
		ETA:             eta,
		Coordinate: Coordinate{
			Latitude:  centreLat + (s.jitter()-0.5)*0.1,
			Longitude: centreLon + (s.jitter()-0.5)*0.1,
		},
		CurrentLocation: fmt.Sprintf("%.4f,%.4f", centreLat, centreLon),
		ImageURL:        i%3 + 1,
		ChangeInfo:      "Available from " + route.SourceName,
	}
	if b.Driver != nil {
		card.DriverName = orDefault(b.Driver.Name, card.DriverName)
		card.DriverMobile = b.Driver.Mobile
	}
	return card
}

func (s BusService) StopsList(ctx context.Context) ([]StopView, error) {
	rows, err := s.Stops.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StopView, 0, len(rows))
	for _, st := range rows {
		region := "Unknown"
		if st.Regions != nil && *st.Regions != "" {
			region = *st.Regions
		}
		out = append(out, StopView{
			StopID:      st.StopID,
			StopName:    st.StopName,
			Location:    utils.StopLocation(st.StopName),
			Region:      region,
			Latitude:    st.Latitude,
			Longitude:   st.Longitude,
			RoutesCount: st.RoutesCount,
		})
	}
	return out, nil
}

func (s BusService) RouteLocations(ctx context.Context) ([]StopView, error) {
	rows, err := s.Routes.Locations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StopView, 0, len(rows))
	for _, l := range rows {
		out = append(out, StopView{
			StopID:      utils.LocationID(l.Name),
			StopName:    l.Name,
			Location:    l.Name,
			Region:      l.Name,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			RoutesCount: l.RoutesCount,
		})
	}
	return out, nil
}

func (s BusService) Locations(ctx context.Context) ([]models.BusLocation, error) {
	return s.Buses.ListLocations(ctx)
}

// TableCounts backs the diagnostics endpoints.
func (s BusService) TableCounts(ctx context.Context, tables ...string) (map[string]int, error) {
	return s.Buses.Counts(ctx, tables...)
}
