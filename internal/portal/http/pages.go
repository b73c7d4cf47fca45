package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// flash is the data for pages that show a one-line error or message
// carried on the query string.
type flash struct {
	Error   string
	Message string
}

func flashFromQuery(r *http.Request) flash {
	q := r.URL.Query()
	return flash{Error: q.Get("error"), Message: q.Get("message")}
}

// render executes the named page into a buffer first so a template error
// still yields a clean 500.
func render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("render page", slog.String("page", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// page returns a handler that renders a static page with the query flash.
func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, name, flashFromQuery(r))
	}
}
