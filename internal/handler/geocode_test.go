package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"maps-api/internal/geocoding"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockGeoCodeService is a mock implementation of the GeoCodeService interface
type MockGeoCodeService struct {
	mock.Mock
}

func (m *MockGeoCodeService) Geocode(ctx context.Context, address string) ([]geocoding.Result, error) {
	args := m.Called(ctx, address)
	return args.Get(0).([]geocoding.Result), args.Error(1)
}

func TestGeoCodeHandler_GeoCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		query          string
		mockResults    []geocoding.Result
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing query parameter",
			query:          "",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"missing required query parameter 'q'"}`,
		},
		{
			name:           "successful geocoding with results",
			query:          "Jl. Jend. Sudirman, Pekanbaru",
			mockResults:    []geocoding.Result{{Latitude: -0.507, Longitude: 101.4477, Importance: 0.61, DisplayName: "Pekanbaru"}},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"lat":-0.507,"lon":101.4477,"importance":0.61,"display_name":"Pekanbaru"}]`,
		},
		{
			name:           "successful geocoding with no results",
			query:          "nonexistent address",
			mockResults:    []geocoding.Result{},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "service error",
			query:          "Pekanbaru",
			mockResults:    nil,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockSvc := new(MockGeoCodeService)
			handler := NewGeoCodeHandler(mockSvc)

			if tt.query != "" {
				mockSvc.On("Geocode", mock.Anything, tt.query).Return(tt.mockResults, tt.mockError)
			}

			// Create request
			req := httptest.NewRequest(http.MethodGet, "/geocode", nil)
			if tt.query != "" {
				q := req.URL.Query()
				q.Add("q", tt.query)
				req.URL.RawQuery = q.Encode()
			}
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			// Execute
			handler.GeoCode(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			if tt.query != "" {
				mockSvc.AssertExpectations(t)
			}
		})
	}
}
