// internal/middleware/security.go
//
// Security-header middleware.
//
// Sets on every response, unless the handler already chose a value:
//
//   • Strict-Transport-Security
//   • Content-Security-Policy
//   • X-Frame-Options
//   • X-Content-Type-Options
//   • Referrer-Policy
//   • Permissions-Policy
//
// Notes
// -----
// • Headers are written before next.ServeHTTP; a handler that needs a
//   different policy overwrites them with Header().Set.
// • Demo pages load hero and gallery images from arbitrary https hosts and
//   carry one inline <style> block for the brand color, hence img-src https:
//   and style-src 'unsafe-inline'.

package middleware

import "net/http"

var securityHeaders = [...][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; " +
		"object-src 'none'; base-uri 'self'; frame-ancestors 'self'"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			if h.Get(kv[0]) == "" {
				h.Set(kv[0], kv[1])
			}
		}
		next.ServeHTTP(w, r)
	})
}

// NoIndex marks responses as not for search engines.  Previews and admin
// views use it.
func NoIndex(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Robots-Tag", "noindex, nofollow")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
