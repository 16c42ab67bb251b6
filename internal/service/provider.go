package service

import (
	"net/http"

	"maps-api/internal/geocoding"
	"maps-api/internal/i18n"
	"maps-api/internal/models"
)

// provider is the geocoding strategy a load cycle resolves coordinates with.
type provider int

const (
	providerNominatim provider = iota
	providerMapBox
)

func (p provider) String() string {
	if p == providerMapBox {
		return "mapbox"
	}
	return "nominatim"
}

// PaidProvider geocodes and routes through MapBox.
type PaidProvider interface {
	geocoding.Geocoder
	geocoding.Router
}

// routingErrors maps MapBox directions messages to user-facing text keys.
// Unknown messages produce no routing error.
var routingErrors = map[string]string{
	"Too many coordinates; maximum number of coordinates is 25": i18n.TooManyRoutingPoints,
	"Route exceeds maximum distance limitation":                 i18n.PointsTooFarApart,
	"Too Many Requests":                                         i18n.TooManyRequests,
}

func routingErrorMessage(lang, message string) string {
	key, ok := routingErrors[message]
	if !ok {
		return ""
	}
	return i18n.T(lang, key)
}

// fallbackNotification returns the notice shown when a MapBox failure switches the view to
// OpenStreetMap, or false when the failure switches silently.
func fallbackNotification(lang string, status int) (models.Notification, bool) {
	var title string
	switch {
	case status == http.StatusUnauthorized:
		title = i18n.TokenInvalid
	case status == http.StatusForbidden:
		title = i18n.UnauthorizedConn
	case status == 0 || status >= http.StatusInternalServerError:
		title = i18n.MapBoxUnreachable
	default:
		return models.Notification{}, false
	}
	return models.Notification{
		Type:    models.NotificationDanger,
		Title:   i18n.T(lang, title),
		Message: i18n.T(lang, i18n.ProviderSwitched),
	}, true
}

// routingOnly reports whether a directions failure only sets the routing error
// and keeps MapBox for the cycle.
func routingOnly(status int) bool {
	return status == http.StatusUnprocessableEntity || status == http.StatusTooManyRequests
}
