package web

import (
	"net/http"

	"waybarx/internal/auth"
	"waybarx/internal/netx"
)

// PanelLister reports the panels currently alive
type PanelLister interface {
	Panels() []Panel
}

// StartAPI registers the panel listing endpoint. Any valid panel token may read it.
func StartAPI(mux *http.ServeMux, tokens *auth.TokenStore, panels PanelLister) {
	mux.HandleFunc("/api/panels", auth.RequireAuth(tokens, handlePanels(panels)))
}

func handlePanels(panels PanelLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			netx.WriteMethodNotAllowed(w)
			return
		}
		netx.WriteSuccess(w, "Panels retrieved", panels.Panels())
	}
}
