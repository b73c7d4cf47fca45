package http

import (
	"net/http"

	"github.com/aussiebroadwan/campus/internal/portal/session"
)

// principalPage renders name with the session principal. It must sit
// behind session.RequireUser.
func principalPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := session.PrincipalFromContext(r.Context())
		render(w, r, http.StatusOK, name, p)
	}
}
