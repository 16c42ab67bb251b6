package storage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBoundary(t *testing.T) {
	polygon := `{"type":"Polygon","coordinates":[[[101.4,-0.5],[101.5,-0.5],[101.5,-0.6],[101.4,-0.5]]]}`

	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "plain geojson", input: polygon, expected: polygon},
		{name: "surrounding whitespace", input: "\n " + polygon + "\n", expected: polygon},
		{name: "base64 geojson", input: base64.StdEncoding.EncodeToString([]byte(polygon)), expected: polygon},
		{name: "base64 of text", input: base64.StdEncoding.EncodeToString([]byte("not json")), expectError: true},
		{name: "garbage", input: "%%%", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBoundary([]byte(tt.input))
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidBoundary)
				return
			}
			assert.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(got))
		})
	}
}
