package logging

import (
	"bytes"
	"testing"

	"maps-api/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantLevel zerolog.Level
		wantJSON  bool
	}{
		{name: "debug json", cfg: config.LogConfig{Level: "debug"}, wantLevel: zerolog.DebugLevel, wantJSON: true},
		{name: "upper case", cfg: config.LogConfig{Level: "WARN"}, wantLevel: zerolog.WarnLevel, wantJSON: true},
		{name: "unknown level", cfg: config.LogConfig{Level: "loud"}, wantLevel: zerolog.InfoLevel, wantJSON: true},
		{name: "empty level", cfg: config.LogConfig{}, wantLevel: zerolog.InfoLevel, wantJSON: true},
		{name: "pretty", cfg: config.LogConfig{Level: "info", Pretty: true}, wantLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			setup(tt.cfg, &buf)

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
			log.Error().Str("session", "abc").Msg("map load failed")
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"session":"abc"`)
			} else {
				assert.Contains(t, buf.String(), "session=")
			}
			assert.Contains(t, buf.String(), "map load failed")
		})
	}
}
