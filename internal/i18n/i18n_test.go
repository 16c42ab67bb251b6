package i18n

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestTag(t *testing.T) {
	assert.Equal(t, language.English, Tag(""))
	assert.Equal(t, language.English, Tag("en_US"))
	assert.Equal(t, language.Indonesian, Tag("id_ID"))
	assert.Equal(t, language.English, Tag("fr_FR"))
}

func TestT(t *testing.T) {
	tests := []struct {
		lang     string
		key      string
		expected string
	}{
		{lang: "en_US", key: None, expected: "None"},
		{lang: "id_ID", key: None, expected: "Tidak ada"},
		{lang: "id_ID", key: Yes, expected: "Ya"},
		{lang: "", key: TooManyRequests, expected: TooManyRequests},
		{lang: "id", key: "untranslated text", expected: "untranslated text"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, T(tt.lang, tt.key))
		})
	}
}

func TestMonth(t *testing.T) {
	assert.Equal(t, "August", Month("en_US", time.August, false))
	assert.Equal(t, "Aug", Month("", time.August, true))
	assert.Equal(t, "Agustus", Month("id_ID", time.August, false))
	assert.Equal(t, "Agu", Month("id_ID", time.August, true))
	assert.Equal(t, "Mei", Month("id_ID", time.May, true))
}
