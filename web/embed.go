// Package web embeds the landing page and provides an HTTP handler that
// serves it with the active provider's title filled in.
package web

import (
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/ashureev/askbox/internal/llm"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Title returns the landing-page title for the given provider name.
func Title(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "Chat with ChatGPT"
	case llm.ProviderAnthropic:
		return "Chat with Claude"
	case llm.ProviderGemini:
		return "Chat with Gemini"
	default:
		return "Chat with No Model Available"
	}
}

// IndexHandler returns an http.Handler serving the landing page.
func IndexHandler(provider string) http.Handler {
	data := struct{ Title string }{Title: Title(provider)}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, data); err != nil {
			slog.Error("failed to render landing page", "error", err)
		}
	})
}
