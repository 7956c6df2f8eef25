package services

import (
	"context"
	"fmt"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
	"smartbus/internal/timeline"
	"smartbus/internal/utils"
)

var (
	ErrNoRouteForBus = domain.NotFoundError{Resource: "route", Msg: "No route data available for this bus."}
	ErrNoRouteStops  = domain.NotFoundError{Resource: "stops", Msg: "No stops found for the assigned route."}
	errUnresolvable  = domain.NotFoundError{Resource: "route", Msg: "No route could be determined for this bus."}
	errRouteNoStops  = domain.NotFoundError{Resource: "route", Msg: "Route not found or no stops available."}
)

// NoRouteSuggestion accompanies ErrNoRouteForBus responses.
const NoRouteSuggestion = "Bus may need to be assigned to a route or route data may be missing."

type CurrentLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type TimelineBus struct {
	BusID           int64              `json:"bus_id"`
	BusNumber       string             `json:"bus_number"`
	Capacity        int                `json:"capacity"`
	Status          string             `json:"status"`
	CurrentLocation *CurrentLocation   `json:"current_location"`
	DriverID        *int64             `json:"driver_id"`
	IsRealTime      bool               `json:"is_real_time"`
	LastSeen        *timeline.LastSeen `json:"last_seen"`
}

type TimelineRoute struct {
	RouteID         int64    `json:"route_id"`
	RouteName       string   `json:"route_name"`
	SourceStop      string   `json:"source_stop"`
	DestinationStop string   `json:"destination_stop"`
	DistanceKm      *float64 `json:"distance_km"`
	TotalStops      int      `json:"total_stops"`
	IsRealTime      bool     `json:"is_real_time"`
}

type TimelineBody struct {
	CurrentStopIndex int                 `json:"current_stop_index"`
	Stops            []timeline.Entry    `json:"stops"`
	LastUpdated      time.Time           `json:"last_updated"`
	Mode             domain.TimelineMode `json:"mode"`
	Message          string              `json:"message"`
	LastSeenStop     *timeline.LastSeen  `json:"last_seen_stop"`
}

type BusTimeline struct {
	Bus      TimelineBus       `json:"bus"`
	Route    TimelineRoute     `json:"route"`
	Timeline TimelineBody      `json:"timeline"`
	Metadata timeline.Metadata `json:"metadata"`
}

type RouteStopsBus struct {
	BusID     int64  `json:"bus_id"`
	BusNumber string `json:"bus_number"`
	Status    string `json:"status"`
}

type RouteStopsRoute struct {
	RouteID         int64  `json:"route_id"`
	RouteName       string `json:"route_name,omitempty"`
	SourceStop      string `json:"source_stop,omitempty"`
	DestinationStop string `json:"destination_stop,omitempty"`
	TotalStops      int    `json:"total_stops"`
}

type RouteStopsTimeline struct {
	Stops            []timeline.Entry `json:"stops"`
	CurrentStopIndex int              `json:"current_stop_index"`
	LastUpdated      time.Time        `json:"last_updated"`
}

// BusRouteStops is the simpler timeline served by /buses/:busId/route-stops.
type BusRouteStops struct {
	Bus      RouteStopsBus      `json:"bus"`
	Route    RouteStopsRoute    `json:"route"`
	Timeline RouteStopsTimeline `json:"timeline"`
}

type ScheduledStop struct {
	ID                   int64    `json:"id"`
	StopName             string   `json:"stop_name"`
	SequenceNo           int      `json:"sequence_no"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	EstimatedArrivalTime string   `json:"estimated_arrival_time"`
	FormattedTime        string   `json:"formatted_time"`
}

type RouteStops struct {
	RouteID     int64           `json:"route_id"`
	RouteName   string          `json:"route_name"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	DistanceKm  *float64        `json:"distance_km"`
	TotalStops  int             `json:"total_stops"`
	Stops       []ScheduledStop `json:"stops"`
}

type RouteView struct {
	RouteID          int64    `json:"route_id"`
	RouteName        string   `json:"route_name"`
	SourceStop       string   `json:"source_stop"`
	DestinationStop  string   `json:"destination_stop"`
	DistanceKm       *float64 `json:"distance_km"`
	ActiveBusesCount int      `json:"active_buses_count"`
	StopsCount       int      `json:"stops_count"`
}

type TimelineService struct {
	Buses     repositories.BusRepository
	Routes    repositories.RouteRepository
	Stops     repositories.StopRepository
	Cache     *StopCache
	Now       func() time.Time
	RequestID string
}

func (s TimelineService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s TimelineService) staticStops(ctx context.Context, routeID int64) ([]models.Stop, error) {
	return s.Cache.Get(ctx, routeID, s.Stops.ListByRoute)
}

// BusTimeline builds the hybrid timeline: live when the bus has an open
// driver session, otherwise from the requested route or the route with the
// most stops.
func (s TimelineService) BusTimeline(ctx context.Context, busID, requestedRouteID int64) (BusTimeline, error) {
	bus, err := s.Buses.GetSession(ctx, busID)
	if err != nil {
		return BusTimeline{}, err
	}
	now := s.now()

	var (
		route   models.Route
		entries []timeline.Entry
		current int
		mode    = domain.ModeStatic
	)
	if bus.HasLiveSession() {
		mode = domain.ModeRealTime
		route = *bus.ActiveRoute
		stops, err := s.Stops.ListLive(ctx, route.RouteID, *bus.SessionID, bus.BusID)
		if err != nil {
			return BusTimeline{}, err
		}
		if len(stops) == 0 {
			return BusTimeline{}, ErrNoRouteStops
		}
		current = timeline.LiveCurrentIndex(stops)
		entries = timeline.BuildLive(stops, current, bus.Status, route.DistanceOr(timeline.DefaultRouteKm), now)
	} else {
		res, err := timeline.ResolveRoute(0, requestedRouteID, func() (int64, error) {
			return s.Routes.WithMostStops(ctx)
		})
		if err != nil {
			return BusTimeline{}, err
		}
		if res.Source == timeline.SourceNone {
			return BusTimeline{}, ErrNoRouteForBus
		}
		route, err = s.Routes.GetByID(ctx, res.RouteID)
		if domain.IsNotFound(err) {
			return BusTimeline{}, ErrNoRouteForBus
		}
		if err != nil {
			return BusTimeline{}, err
		}
		stops, err := s.staticStops(ctx, route.RouteID)
		if err != nil {
			return BusTimeline{}, err
		}
		if len(stops) == 0 {
			return BusTimeline{}, ErrNoRouteStops
		}
		current = timeline.StaticCurrentIndex(len(stops))
		entries = timeline.BuildStatic(stops, current, route.DistanceOr(timeline.DefaultRouteKm), now)
	}

	live := mode == domain.ModeRealTime
	seen := timeline.FindLastSeen(entries)
	out := BusTimeline{
		Bus: TimelineBus{
			BusID:      bus.BusID,
			BusNumber:  bus.BusNumber,
			Capacity:   bus.Capacity,
			Status:     orDefault(bus.Status, "unknown"),
			DriverID:   bus.CurrentDriverID,
			IsRealTime: live,
			LastSeen:   seen,
		},
		Route: TimelineRoute{
			RouteID:         route.RouteID,
			RouteName:       route.Name(),
			SourceStop:      route.SourceName,
			DestinationStop: route.DestinationName,
			DistanceKm:      route.TotalDistanceKm,
			TotalStops:      len(entries),
			IsRealTime:      live,
		},
		Timeline: TimelineBody{
			CurrentStopIndex: current,
			Stops:            entries,
			LastUpdated:      now,
			Mode:             mode,
			Message:          "Showing scheduled stops from database",
			LastSeenStop:     seen,
		},
		Metadata: timeline.Summarize(entries, mode),
	}
	if live {
		out.Timeline.Message = "Live tracking active"
	}
	if bus.Location != nil {
		out.Bus.CurrentLocation = &CurrentLocation{
			Latitude:  bus.Location.Latitude,
			Longitude: bus.Location.Longitude,
			Timestamp: bus.Location.LastUpdated,
		}
	}

	utils.LogEvent(s.RequestID, "timeline", "bus_timeline",
		fmt.Sprintf("bus_id=%d route_id=%d stops=%d mode=%s", busID, route.RouteID, len(entries), mode))
	return out, nil
}

// BusRouteStops resolves the bus's route (session, requested, first route)
// and renders the third-of-the-way view.
func (s TimelineService) BusRouteStops(ctx context.Context, busID, requestedRouteID int64) (BusRouteStops, error) {
	bus, err := s.Buses.GetSession(ctx, busID)
	if err != nil {
		return BusRouteStops{}, err
	}
	var sessionRoute int64
	if bus.ActiveRoute != nil {
		sessionRoute = bus.ActiveRoute.RouteID
	}
	res, err := timeline.ResolveRoute(sessionRoute, requestedRouteID, func() (int64, error) {
		return s.Routes.FirstRouteID(ctx)
	})
	if err != nil {
		return BusRouteStops{}, err
	}
	if res.Source == timeline.SourceNone {
		return BusRouteStops{}, errUnresolvable
	}

	now := s.now()
	out := BusRouteStops{
		Bus: RouteStopsBus{
			BusID:     bus.BusID,
			BusNumber: bus.BusNumber,
			Status:    orDefault(bus.Status, domain.BusAvailable),
		},
		Route:    RouteStopsRoute{RouteID: res.RouteID},
		Timeline: RouteStopsTimeline{Stops: []timeline.Entry{}, LastUpdated: now},
	}

	stops, err := s.staticStops(ctx, res.RouteID)
	if err != nil {
		return BusRouteStops{}, err
	}
	if len(stops) == 0 {
		utils.LogEvent(s.RequestID, "timeline", "route_stops", fmt.Sprintf("route_id=%d no stops", res.RouteID))
		return out, nil
	}

	route, err := s.Routes.GetByID(ctx, res.RouteID)
	if err != nil {
		return BusRouteStops{}, err
	}
	entries, current := timeline.BuildThirds(stops, now)
	out.Route = RouteStopsRoute{
		RouteID:         route.RouteID,
		RouteName:       route.Name(),
		SourceStop:      route.SourceName,
		DestinationStop: route.DestinationName,
		TotalStops:      len(entries),
	}
	out.Timeline.Stops = entries
	out.Timeline.CurrentStopIndex = current

	utils.LogEvent(s.RequestID, "timeline", "route_stops",
		fmt.Sprintf("bus_id=%d route_id=%d source=%s stops=%d", busID, res.RouteID, res.Source, len(entries)))
	return out, nil
}

// RouteStops lists a route's stops with their scheduled arrival times.
func (s TimelineService) RouteStops(ctx context.Context, routeID int64) (RouteStops, error) {
	route, err := s.Routes.GetByID(ctx, routeID)
	if domain.IsNotFound(err) {
		return RouteStops{}, errRouteNoStops
	}
	if err != nil {
		return RouteStops{}, err
	}
	stops, err := s.staticStops(ctx, routeID)
	if err != nil {
		return RouteStops{}, err
	}
	if len(stops) == 0 {
		return RouteStops{}, errRouteNoStops
	}

	now := s.now()
	out := RouteStops{
		RouteID:     route.RouteID,
		RouteName:   route.Name(),
		Source:      route.SourceName,
		Destination: route.DestinationName,
		DistanceKm:  route.TotalDistanceKm,
		TotalStops:  len(stops),
		Stops:       make([]ScheduledStop, 0, len(stops)),
	}
	for _, st := range stops {
		at := timeline.ScheduledArrival(now, st.SequenceNo-1, 15*time.Minute)
		out.Stops = append(out.Stops, ScheduledStop{
			ID:                   st.StopID,
			StopName:             st.StopName,
			SequenceNo:           st.SequenceNo,
			Latitude:             st.StopLat,
			Longitude:            st.StopLon,
			EstimatedArrivalTime: utils.FormatClock24(at),
			FormattedTime:        timeline.FormatClock(at),
		})
	}
	return out, nil
}

func (s TimelineService) ListRoutes(ctx context.Context) ([]RouteView, error) {
	summaries, err := s.Routes.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RouteView, 0, len(summaries))
	for _, r := range summaries {
		out = append(out, RouteView{
			RouteID:          r.RouteID,
			RouteName:        r.Name(),
			SourceStop:       r.SourceName,
			DestinationStop:  r.DestinationName,
			DistanceKm:       r.TotalDistanceKm,
			ActiveBusesCount: r.ActiveBusesCount,
			StopsCount:       r.StopsCount,
		})
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
