// Package public embeds the landing page's stylesheets, scripts and images.
package public

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Handler serves the embedded assets with paths relative to static/,
// e.g. "css/landing.css".
func Handler() (http.Handler, error) {
	root, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	return http.FileServer(http.FS(root)), nil
}
