// internal/requestinfo/middleware.go
//
// Enrich attaches *RequestInfo to each request.  It sits right after the
// logger middleware so every handler, including the locale redirect, can
// read UA, language and geo hints without reparsing headers.
//
// Client IP is the left-most parseable address from X-Forwarded-For, then
// X-Real-IP, then RemoteAddr.

package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/demosite/internal/logger"
)

// Enrich returns middleware using geo for lookups.  geo may be nil.
func Enrich(geo *GeoDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				UA:        ParseUA(r.UserAgent()),
				Geo:       geo.Lookup(clientIP(r)),
				Lang:      PrimaryLang(r.Header.Get("Accept-Language")),
				Timestamp: time.Now().UTC(),
			}

			logger.From(r.Context()).Debugw("request info",
				"ip", info.Geo.IP,
				"country", info.Geo.CountryISO,
				"browser", info.UA.Browser,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
				"lang", info.Lang,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
