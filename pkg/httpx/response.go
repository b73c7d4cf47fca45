package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Pages that carry session state or one-time tokens must not be cached.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// RedirectWithQuery sends a 302 to path with a single query parameter, the
// way form handlers hand a flash message to the next page:
// RedirectWithQuery(w, r, "/login", "error", "Invalid password").
func RedirectWithQuery(w http.ResponseWriter, r *http.Request, path, key, value string) {
	target := path
	if key != "" {
		target += "?" + url.Values{key: {value}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
