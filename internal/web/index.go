package web

import (
	"net/http"
	"path/filepath"

	"waybarx/internal/conf"
	"waybarx/internal/netx"
)

// StartIndex registers the panel page with the given mux
func StartIndex(mux *http.ServeMux) {
	mux.HandleFunc("/", handleIndex)
}

// handleIndex serves the panel page; the UI reads its monitor and token from the query
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}
	if r.URL.Path != "/" {
		netx.WriteNotFound(w, "Not found")
		return
	}

	http.ServeFile(w, r, filepath.Join(conf.GetWeb().RootPath, "index.html"))
}
