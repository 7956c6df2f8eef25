// Package seed imports route stops from CSV files.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"smartbus/internal/domain/models"
)

// StopCSV is one row of a stops import file.
type StopCSV struct {
	RouteID    int64  `csv:"route_id"`
	StopName   string `csv:"stop_name"`
	SequenceNo int    `csv:"sequence_no"`
	StopLat    string `csv:"stop_lat"`
	StopLon    string `csv:"stop_lon"`
}

// StopWriter persists parsed stops, replacing existing stops of the same
// routes. repositories.StopRepository satisfies it.
type StopWriter interface {
	ReplaceForRoutes(ctx context.Context, stops []models.Stop) (int, error)
}

// ParseStops reads and validates a stops CSV. A leading BOM is ignored.
// The result is ordered by route, then sequence.
func ParseStops(data io.Reader) ([]models.Stop, error) {
	rows := []*StopCSV{}
	if err := gocsv.UnmarshalCSV(gocsv.LazyCSVReader(bom.NewReader(data)), &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stops csv")
	}

	type key struct {
		route int64
		seq   int
	}
	seen := map[key]bool{}
	out := make([]models.Stop, 0, len(rows))
	for i, r := range rows {
		line := i + 2 // header is line 1
		if r.RouteID <= 0 {
			return nil, errors.Errorf("invalid route_id %d (line %d)", r.RouteID, line)
		}
		name := strings.TrimSpace(r.StopName)
		if name == "" {
			return nil, errors.Errorf("empty stop_name (line %d)", line)
		}
		if r.SequenceNo <= 0 {
			return nil, errors.Errorf("invalid sequence_no %d (line %d)", r.SequenceNo, line)
		}
		k := key{r.RouteID, r.SequenceNo}
		if seen[k] {
			return nil, errors.Errorf("repeated sequence_no %d for route %d (line %d)", r.SequenceNo, r.RouteID, line)
		}
		seen[k] = true

		lat, err := coordinate(r.StopLat, -90, 90)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing stop_lat (line %d)", line)
		}
		lon, err := coordinate(r.StopLon, -180, 180)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing stop_lon (line %d)", line)
		}
		out = append(out, models.Stop{
			RouteID:    r.RouteID,
			StopName:   name,
			StopLat:    lat,
			StopLon:    lon,
			SequenceNo: r.SequenceNo,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RouteID != out[j].RouteID {
			return out[i].RouteID < out[j].RouteID
		}
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out, nil
}

// coordinate parses an optional coordinate; blank means unknown.
func coordinate(raw string, min, max float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if v < min || v > max {
		return nil, fmt.Errorf("%v out of range [%v, %v]", v, min, max)
	}
	return &v, nil
}

// ImportStops parses data and hands the stops to w.
func ImportStops(ctx context.Context, w StopWriter, data io.Reader) (int, error) {
	stops, err := ParseStops(data)
	if err != nil {
		return 0, err
	}
	if len(stops) == 0 {
		return 0, errors.New("no stops in file")
	}
	n, err := w.ReplaceForRoutes(ctx, stops)
	if err != nil {
		return 0, errors.Wrap(err, "writing stops")
	}
	return n, nil
}

// ImportStopsFile is ImportStops for a path on disk.
func ImportStopsFile(ctx context.Context, w StopWriter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return ImportStops(ctx, w, f)
}
