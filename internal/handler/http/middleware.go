package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/wishlist/pkg/httputil"
)

// ContentTypeJSON rejects request bodies that declare a content type other
// than application/json. A missing Content-Type is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType,
					httputil.NewErrorResponse(r, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
