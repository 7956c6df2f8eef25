package gtfsrt

import (
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"smartbus/internal/domain/models"
)

func TestBuildSkipsBusesWithoutFix(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fix := now.Add(-30 * time.Second)
	locs := []models.BusLocation{
		{BusID: 1, BusNumber: "PB-01", Latitude: ptr(30.73), Longitude: ptr(76.77), Timestamp: &fix},
		{BusID: 2, BusNumber: "PB-02"},
	}

	msg := Build(locs, now)
	require.Len(t, msg.GetEntity(), 1)
	require.Equal(t, uint64(fix.Unix()), msg.GetHeader().GetTimestamp())

	e := msg.GetEntity()[0]
	require.Equal(t, "bus-1", e.GetId())
	require.Equal(t, "PB-01", e.GetVehicle().GetVehicle().GetLabel())
	require.InDelta(t, 30.73, e.GetVehicle().GetPosition().GetLatitude(), 1e-4)
}

func TestFeedTimeFallsBackToNow(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	require.Equal(t, now, FeedTime(nil, now))
	require.Equal(t, now, FeedTime([]models.BusLocation{{BusID: 1}}, now))
}

func TestMarshalRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	msg := Build([]models.BusLocation{{BusID: 9, Latitude: ptr(1.5), Longitude: ptr(2.5)}}, now)

	raw, ct, err := Marshal(msg, false)
	require.NoError(t, err)
	require.Equal(t, ContentTypeBinary, ct)

	var back gtfs.FeedMessage
	require.NoError(t, proto.Unmarshal(raw, &back))
	require.Equal(t, "bus-9", back.GetEntity()[0].GetId())

	text, ct, err := Marshal(msg, true)
	require.NoError(t, err)
	require.Equal(t, ContentTypeText, ct)
	require.Contains(t, string(text), "bus-9")
}
