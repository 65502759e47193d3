package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/biblia-chat/core/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const localeCookieMaxAge = 365 * 24 * 60 * 60

// localeExcludedPrefixes are never redirected: the API surface, health
// checks and static assets live outside the language-prefixed page tree.
var localeExcludedPrefixes = []string{"/api", "/ping", "/assets", "/static", "/favicon"}

// Locale canonicalizes page URLs around a language prefix. Per request it
// makes exactly one decision: redirect, pass through, or pass through with
// the language cookie refreshed.
//
// Policy, in order:
//   - excluded or dotted paths pass through; a referer that names a
//     supported language refreshes the cookie
//   - /{lng}/bible redirects to the language's default edition at GEN 1
//   - / redirects to /{lng}
//   - a path with a supported prefix passes through, cookie refreshed
//   - anything else redirects with the negotiated prefix inserted
func Locale(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if isLocaleExcluded(path) {
			if lng := refererLanguage(c.GetHeader("Referer")); lng != "" {
				setLocaleCookie(c, lng)
			}
			c.Next()
			return
		}

		cookie, _ := c.Cookie(i18n.CookieName)

		if path == "/" {
			lng := i18n.Negotiate(cookie, c.GetHeader("Accept-Language"))
			redirectWithLocale(c, lng, "/"+lng)
			return
		}

		if lng, rest, ok := splitLocalePrefix(path); ok {
			if rest == "/bible" || rest == "/bible/" {
				version, found := i18n.DefaultBibleVersions[lng]
				if !found {
					log.Warn("no default bible version for language", zap.String("lng", lng))
					setLocaleCookie(c, lng)
					c.Next()
					return
				}
				redirectWithLocale(c, lng, "/"+lng+"/bible/"+version+"/"+i18n.DefaultBook+"/"+i18n.DefaultChapter)
				return
			}
			setLocaleCookie(c, lng)
			c.Next()
			return
		}

		lng := i18n.Negotiate(cookie, c.GetHeader("Accept-Language"))
		redirectWithLocale(c, lng, "/"+lng+path)
	}
}

func isLocaleExcluded(path string) bool {
	for _, prefix := range localeExcludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// Dotted paths are asset files, never pages.
	return strings.Contains(path, ".")
}

// splitLocalePrefix returns the language and the remainder of the path when
// the first segment is a supported language code.
func splitLocalePrefix(path string) (lng, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	seg := trimmed
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		seg = trimmed[:idx]
		rest = trimmed[idx:]
	}
	if !i18n.IsSupported(seg) {
		return "", "", false
	}
	return seg, rest, true
}

// refererLanguage extracts a supported language from a referer path prefix.
func refererLanguage(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	lng, _, ok := splitLocalePrefix(u.Path)
	if !ok {
		return ""
	}
	return lng
}

func redirectWithLocale(c *gin.Context, lng, target string) {
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	setLocaleCookie(c, lng)
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func setLocaleCookie(c *gin.Context, lng string) {
	c.SetCookie(i18n.CookieName, lng, localeCookieMaxAge, "/", "", false, false)
}
