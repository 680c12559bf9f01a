package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist
var distFS embed.FS

// GetFileSystem returns the embedded UI filesystem rooted at dist/, so files
// are served without "dist" appearing in URLs.
func GetFileSystem() (http.FileSystem, error) {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil, err
	}
	return http.FS(fsys), nil
}
