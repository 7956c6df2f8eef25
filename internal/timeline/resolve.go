package timeline

// RouteSource records which branch picked a bus's route.
type RouteSource string

const (
	SourceSession   RouteSource = "session"
	SourceRequested RouteSource = "requested"
	SourceFallback  RouteSource = "fallback"
	SourceNone      RouteSource = ""
)

// Resolution is the outcome of ResolveRoute. RouteID is 0 with SourceNone
// when nothing could be picked.
type Resolution struct {
	RouteID int64
	Source  RouteSource
}

// ResolveRoute applies the bus-to-route fallback chain: the open driver
// session's route, else the caller's route, else whatever fallback yields.
// Zero means "absent" for both IDs; fallback is only called when needed.
func ResolveRoute(sessionRouteID, requestedRouteID int64, fallback func() (int64, error)) (Resolution, error) {
	if sessionRouteID > 0 {
		return Resolution{RouteID: sessionRouteID, Source: SourceSession}, nil
	}
	if requestedRouteID > 0 {
		return Resolution{RouteID: requestedRouteID, Source: SourceRequested}, nil
	}
	if fallback == nil {
		return Resolution{}, nil
	}
	id, err := fallback()
	if err != nil {
		return Resolution{}, err
	}
	if id <= 0 {
		return Resolution{}, nil
	}
	return Resolution{RouteID: id, Source: SourceFallback}, nil
}
