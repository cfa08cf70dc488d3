// Package site serves the embedded storefront page.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register mounts the storefront at the root of r. Explicit routes on r
// keep priority over the catch-all.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	files := http.FileServer(FS())
	r.Handle("/", files)
	r.Handle("/*", files)
}
