package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init loads the embedded locale files. Safe to call more than once.
func Init() {
	once.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		_, _ = bundle.LoadMessageFileFS(localeFS, "locales/active.en.json")
		_, _ = bundle.LoadMessageFileFS(localeFS, "locales/active.es.json")
	})
}

// T resolves messageID for the given language tags, falling back to the
// message id itself when nothing matches.
func T(lang, messageID string, data map[string]interface{}) string {
	if bundle == nil {
		Init()
	}
	localizer := goi18n.NewLocalizer(bundle, lang)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
