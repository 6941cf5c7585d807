package web

import (
	"net/http"
	"path/filepath"

	"waybarx/internal/conf"
)

func StartAssets(mux *http.ServeMux) {
	mux.Handle(
		"/assets/", http.StripPrefix(
			"/assets",
			http.FileServer(
				http.Dir(
					filepath.Join(conf.GetWeb().RootPath, "assets"),
				),
			),
		),
	)
}
