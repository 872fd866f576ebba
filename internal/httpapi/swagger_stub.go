//go:build !swagger

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountSwagger answers /swagger/ with a hint when the UI is not compiled in.
// Build with -tags=swagger for the real handler.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "api docs not built; rebuild with -tags=swagger")
	})
}
