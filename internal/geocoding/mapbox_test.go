package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapBoxClient_NoToken(t *testing.T) {
	assert.Nil(t, NewMapBoxClient("", "https://api.mapbox.com", "", time.Second))
}

func TestMapBoxClient_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/geocoding/v5/mapbox.places/"))
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"features":[{"place_name":"Pekanbaru","relevance":0.9,"geometry":{"coordinates":[101.4477,-0.507]}}]}`))
	}))
	defer srv.Close()

	client := NewMapBoxClient("tok", srv.URL, "", time.Second)
	results, err := client.Geocode(context.Background(), "Pekanbaru")
	require.NoError(t, err)
	assert.Equal(t, []Result{{Latitude: -0.507, Longitude: 101.4477, Importance: 0.9, DisplayName: "Pekanbaru"}}, results)
}

func TestMapBoxClient_GeocodeUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	client := NewMapBoxClient("bad", srv.URL, "", time.Second)
	_, err := client.Geocode(context.Background(), "Pekanbaru")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestMapBoxClient_Directions(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectRoutes  int
		expectStatus  int
		expectMessage string
	}{
		{
			name:         "route found",
			status:       http.StatusOK,
			body:         `{"code":"Ok","routes":[{"distance":1200.5,"duration":300,"geometry":{"type":"LineString","coordinates":[[1,2],[3,4]]},"legs":[{"summary":"Jl. A","distance":1200.5,"duration":300,"steps":[]}]}]}`,
			expectRoutes: 1,
		},
		{
			name:          "too many coordinates",
			status:        http.StatusUnprocessableEntity,
			body:          `{"message":"Too many coordinates; maximum number of coordinates is 25"}`,
			expectStatus:  http.StatusUnprocessableEntity,
			expectMessage: "Too many coordinates; maximum number of coordinates is 25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewMapBoxClient("tok", srv.URL, "", time.Second)
			dir, err := client.Directions(context.Background(), []Point{
				{Latitude: -0.5, Longitude: 101.4},
				{Latitude: -0.6, Longitude: 101.5},
			})
			assert.Equal(t, "/directions/v5/mapbox/driving/101.4,-0.5;101.5,-0.6", gotPath)

			if tt.expectStatus != 0 {
				require.Error(t, err)
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.expectStatus, apiErr.Status)
				assert.Equal(t, tt.expectMessage, apiErr.Message)
				return
			}
			require.NoError(t, err)
			require.Len(t, dir.Routes, tt.expectRoutes)
			assert.Equal(t, 1200.5, dir.Routes[0].Distance)
			require.Len(t, dir.Routes[0].Legs, 1)
			assert.Equal(t, "Jl. A", dir.Routes[0].Legs[0].Summary)
		})
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name   string
		status int
		valid  bool
	}{
		{name: "valid token", status: http.StatusOK, valid: true},
		{name: "invalid token", status: http.StatusUnauthorized},
		{name: "referer not allowed", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "https://erp.example.com", r.Header.Get("Referer"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			check := ValidateToken(context.Background(), srv.Client(), srv.URL, "https://erp.example.com", "tok")
			assert.Equal(t, tt.valid, check.Valid)
			assert.Equal(t, tt.status, check.Status)
		})
	}

	check := ValidateToken(context.Background(), &http.Client{Timeout: time.Second}, "http://127.0.0.1:1", "", "tok")
	assert.False(t, check.Valid)
	assert.Equal(t, http.StatusInternalServerError, check.Status)
}
