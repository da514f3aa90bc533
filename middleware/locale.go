package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/config"
	"github.com/kendall-kelly/personalization-api/i18n"
	"github.com/kendall-kelly/personalization-api/models"
)

// Locale picks the language of validation messages.
// Priority:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. cfg.DefaultLocale
func Locale(cfg *config.Config) gin.HandlerFunc {
	fallback := i18n.DefaultLanguage
	if cfg != nil && i18n.Supported(cfg.DefaultLocale) {
		fallback = cfg.DefaultLocale
	}

	return func(c *gin.Context) {
		lang := ""
		if q := c.Query("lang"); q != "" {
			if i18n.Supported(q) {
				lang = q
				secure := cfg != nil && cfg.IsProduction()
				c.SetCookie("lang", lang, 365*24*60*60, "/", "", secure, true)
			}
		} else if cookie, err := c.Cookie("lang"); err == nil && i18n.Supported(cookie) {
			lang = cookie
		}

		if lang == "" {
			lang = fromAcceptLanguage(c.GetHeader("Accept-Language"))
		}
		if lang == "" {
			lang = fallback
		}

		c.Set("locale", lang)
		c.Request = c.Request.WithContext(i18n.WithLocale(c.Request.Context(), lang))
		c.Next()
	}
}

// fromAcceptLanguage returns the first supported language of the header, ignoring weights and regions
func fromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if i18n.Supported(base) {
			return base
		}
	}
	return ""
}

// GetLocale returns the language chosen by Locale
func GetLocale(c *gin.Context) string {
	if lang := c.GetString("locale"); lang != "" {
		return lang
	}
	return i18n.GetLocale(c.Request.Context())
}

// GetTranslator returns a message translator for the request's language
func GetTranslator(c *gin.Context) models.Translator {
	return models.Translator(i18n.Translator(GetLocale(c)))
}
