// Package i18n holds the supported locales, per-language defaults and the
// Accept-Language negotiation used by the locale router.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	// FallbackLanguage is used when neither cookie nor header resolve.
	FallbackLanguage = "en"
	// CookieName carries the negotiated language between requests.
	CookieName = "i18next"
)

// Languages lists the supported language codes, fallback first.
var Languages = []string{FallbackLanguage, "es"}

// DefaultBibleVersions maps a language to its default Bible edition, used
// when a bare /{lng}/bible path must be canonicalized.
var DefaultBibleVersions = map[string]string{
	"en": "NIV",
	"es": "RVR1960",
}

// DefaultBook and DefaultChapter complete the canonical chapter path.
const (
	DefaultBook    = "GEN"
	DefaultChapter = "1"
)

var matcher language.Matcher

func init() {
	tags := make([]language.Tag, 0, len(Languages))
	for _, l := range Languages {
		tags = append(tags, language.MustParse(l))
	}
	matcher = language.NewMatcher(tags)
}

// IsSupported reports whether lng is exactly one of the supported codes.
func IsSupported(lng string) bool {
	for _, l := range Languages {
		if l == lng {
			return true
		}
	}
	return false
}

// Negotiate resolves the request language: a valid cookie value wins, then
// Accept-Language negotiation, then the fallback constant.
func Negotiate(cookieValue, acceptLanguage string) string {
	if lng := match(cookieValue); lng != "" {
		return lng
	}
	if lng := match(acceptLanguage); lng != "" {
		return lng
	}
	return FallbackLanguage
}

func match(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return Languages[index]
}

var defaultTopicNames = map[string]string{
	"en": "New topic",
	"es": "Nuevo tema",
}

// DefaultTopicName is used when a topic is created from an empty or
// whitespace-only first message.
func DefaultTopicName(lng string) string {
	if name, ok := defaultTopicNames[lng]; ok {
		return name
	}
	return defaultTopicNames[FallbackLanguage]
}

var chatErrorMessages = map[string]string{
	"en": "Error getting response.",
	"es": "Error al obtener respuesta.",
}

// ChatErrorMessage returns the fixed user-facing string stored in place of
// an assistant reply when the upstream request fails.
func ChatErrorMessage(lng string) string {
	if msg, ok := chatErrorMessages[lng]; ok {
		return msg
	}
	return chatErrorMessages[FallbackLanguage]
}
