// Package gtfsrt renders bus positions as a GTFS-realtime vehicle feed.
package gtfsrt

import (
	"strconv"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"smartbus/internal/domain/models"
)

const (
	ContentTypeBinary = "application/x-protobuf"
	ContentTypeText   = "text/plain; charset=utf-8"
)

// FeedTime is the newest fix among locs, or now when none has one.
func FeedTime(locs []models.BusLocation, now time.Time) time.Time {
	var latest time.Time
	for _, l := range locs {
		if l.Timestamp != nil && l.Timestamp.After(latest) {
			latest = *l.Timestamp
		}
	}
	if latest.IsZero() {
		return now
	}
	return latest
}

// Build returns a full-dataset FeedMessage with one VehiclePosition per bus
// that has coordinates. Buses without a fix are left out.
func Build(locs []models.BusLocation, now time.Time) *gtfs.FeedMessage {
	msg := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: ptr("2.0"),
			Incrementality:      ptr(gtfs.FeedHeader_FULL_DATASET),
			Timestamp:           ptr(uint64(FeedTime(locs, now).Unix())),
		},
	}
	msg.Entity = make([]*gtfs.FeedEntity, 0, len(locs))
	for _, l := range locs {
		if e := vehicleEntity(l); e != nil {
			msg.Entity = append(msg.Entity, e)
		}
	}
	return msg
}

func vehicleEntity(l models.BusLocation) *gtfs.FeedEntity {
	if l.Latitude == nil || l.Longitude == nil {
		return nil
	}
	id := strconv.FormatInt(l.BusID, 10)
	vp := &gtfs.VehiclePosition{
		Vehicle: &gtfs.VehicleDescriptor{
			Id:    ptr(id),
			Label: ptr(l.BusNumber),
		},
		Position: &gtfs.Position{
			Latitude:  ptr(float32(*l.Latitude)),
			Longitude: ptr(float32(*l.Longitude)),
		},
	}
	if l.Timestamp != nil {
		vp.Timestamp = ptr(uint64(l.Timestamp.Unix()))
	}
	return &gtfs.FeedEntity{
		Id:      ptr("bus-" + id),
		Vehicle: vp,
	}
}

// Marshal encodes the feed as protobuf, or as prototext when humanReadable.
func Marshal(msg *gtfs.FeedMessage, humanReadable bool) ([]byte, string, error) {
	if humanReadable {
		b, err := prototext.MarshalOptions{Multiline: true}.Marshal(msg)
		return b, ContentTypeText, err
	}
	b, err := proto.Marshal(msg)
	return b, ContentTypeBinary, err
}

func ptr[T any](v T) *T { return &v }
