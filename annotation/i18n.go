package annotation

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

var (
	bundle        *i18n.Bundle
	defaultLocale = "en"
)

type localizerKey struct{}

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, locale := range []string{"en", "is"} {
		data, err := localesFS.ReadFile("locales/" + locale + ".json")
		if err != nil {
			log.Printf("i18n: failed to read locale file %s: %v", locale, err)
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, locale+".json"); err != nil {
			log.Printf("i18n: failed to parse locale file %s: %v", locale, err)
		}
	}
}

// SetLanguage sets the fallback language used when a request expresses no preference
func SetLanguage(lang string) {
	if _, err := language.Parse(lang); err != nil {
		log.Printf("i18n: ignoring invalid language %q: %v", lang, err)
		return
	}
	defaultLocale = lang
}

// WithLocalizer adds a localizer to the context
func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// GetLocalizerFromContext retrieves the localizer from context, or one for the default language
func GetLocalizerFromContext(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(bundle, defaultLocale)
}

// GetLocalizerFromRequest creates a localizer from the Accept-Language header.
// The lang query parameter takes precedence over the header.
func GetLocalizerFromRequest(r *http.Request) *i18n.Localizer {
	langs := []string{}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		langs = append(langs, lang)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		langs = append(langs, accept)
	}
	langs = append(langs, defaultLocale)
	return i18n.NewLocalizer(bundle, langs...)
}

// Localize translates a message id with the context localizer, falling back to the id
func Localize(ctx context.Context, messageID string, data map[string]any) string {
	msg, err := GetLocalizerFromContext(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
