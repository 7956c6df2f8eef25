package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbus/internal/domain"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, "9876543210", in["mobile"])
			_, _ = w.Write([]byte(`{"token":"abc"}`))
		case "/api/notifications/unread-count":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true,"unread_count":4}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	tok, err := c.Login(context.Background(), "9876543210", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL+"/api/").Login(context.Background(), "9876543210", "nope")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials.", apiErr.Message)
}

func TestTimelineUsesServerStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/routes/bus/3/timeline", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"route":{"route_id":1},"timeline":{"current_stop_index":1,
			"stops":[{"id":1,"name":"A","status":"completed"},{"id":2,"name":"B","status":"current"}]}}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Timeline(context.Background(), 3, "Amritsar", "Ludhiana")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Len(t, res.Stops, 2)
	assert.Equal(t, 1, res.Current)
}

func TestTimelineFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"No route data available for this bus."}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Timeline(context.Background(), 3, "Amritsar", "Ludhiana")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	// source, three intermediate stops, destination
	require.Len(t, res.Stops, 5)
	assert.Equal(t, "Amritsar", res.Stops[0].Name)
	assert.Equal(t, "Tarn Taran", res.Stops[1].Name)
	assert.Equal(t, domain.StopCurrent, res.Stops[1].Status)
	assert.Equal(t, 1, res.Current)
}

func TestTimelineFallsBackOnEmptyStopsWithRouteEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"route":{"route_id":4,"source_stop":"Chandigarh","destination_stop":"Ludhiana"},
			"timeline":{"stops":[],"current_stop_index":0}}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Timeline(context.Background(), 3, "", "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	require.Len(t, res.Stops, 4)
	assert.Equal(t, "Rajpura", res.Stops[1].Name)
	assert.Equal(t, "Ludhiana", res.Stops[3].Name)
}
