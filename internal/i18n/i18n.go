// Package i18n translates the user-visible strings of the map pipeline.
package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text is the key.
const (
	None                 = "None"
	Yes                  = "Yes"
	No                   = "No"
	OSMLimitExceeded     = "OpenStreetMap's request limit exceeded, try again later."
	ProviderSwitched     = "The view has switched to another provider but functionalities will be limited"
	TokenInvalid         = "Token invalid"
	UnauthorizedConn     = "Unauthorized connection"
	MapBoxUnreachable    = "MapBox servers unreachable"
	TooManyRoutingPoints = "Too many routing points (maximum 25)"
	PointsTooFarApart    = "Some routing points are too far apart"
	TooManyRequests      = "Too many requests, try again in a few minutes"
	TokenNotValid        = "The token input is not valid"
	RefererNotAuthorized = "This referer is not authorized"
	ServerUnreachable    = "The MapBox server is unreachable"
)

var indonesian = map[string]string{
	None:                 "Tidak ada",
	Yes:                  "Ya",
	No:                   "Tidak",
	OSMLimitExceeded:     "Batas permintaan OpenStreetMap terlampaui, coba lagi nanti.",
	ProviderSwitched:     "Tampilan beralih ke penyedia lain tetapi fungsinya akan terbatas",
	TokenInvalid:         "Token tidak valid",
	UnauthorizedConn:     "Koneksi tidak diizinkan",
	MapBoxUnreachable:    "Server MapBox tidak dapat dijangkau",
	TooManyRoutingPoints: "Terlalu banyak titik rute (maksimum 25)",
	PointsTooFarApart:    "Beberapa titik rute terlalu berjauhan",
	TooManyRequests:      "Terlalu banyak permintaan, coba lagi dalam beberapa menit",
	TokenNotValid:        "Token yang dimasukkan tidak valid",
	RefererNotAuthorized: "Referer ini tidak diizinkan",
	ServerUnreachable:    "Server MapBox tidak dapat dijangkau",

	// Month names as time.Month.String() and its three letter form.
	"January": "Januari", "February": "Februari", "March": "Maret", "April": "April",
	"May": "Mei", "June": "Juni", "July": "Juli", "August": "Agustus",
	"September": "September", "October": "Oktober", "November": "November", "December": "Desember",
	"Jan": "Jan", "Feb": "Feb", "Mar": "Mar", "Apr": "Apr", "Jun": "Jun", "Jul": "Jul",
	"Aug": "Agu", "Sep": "Sep", "Oct": "Okt", "Nov": "Nov", "Dec": "Des",
}

var (
	supported = []language.Tag{language.English, language.Indonesian}
	matcher   = language.NewMatcher(supported)
	cat       = catalog.NewBuilder(catalog.Fallback(language.English))
)

func init() {
	for key, text := range indonesian {
		_ = cat.SetString(language.English, key, key)
		_ = cat.SetString(language.Indonesian, key, text)
	}
}

// Tag resolves a host language code such as "id_ID" or "en-US" to a supported language.
func Tag(lang string) language.Tag {
	if lang == "" {
		return language.English
	}
	_, idx, _ := matcher.Match(language.Make(lang))
	return supported[idx]
}

// Month returns the localised month name, abbreviated to three letters when short is set.
func Month(lang string, m time.Month, short bool) string {
	name := m.String()
	if short {
		name = name[:3]
	}
	return T(lang, name)
}

// T returns the translation of key in lang, or key itself when none exists.
func T(lang, key string) string {
	return message.NewPrinter(Tag(lang), message.Catalog(cat)).Sprintf(key)
}
