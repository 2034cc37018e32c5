package middleware

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"time"
)

// statusRecorder captures the response status for the access log. Hijack is
// forwarded so the websocket upgrade keeps working behind this middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func LoggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			userID := GetUserID(r)
			if userID == "" {
				userID = "anonymous"
			}
			deviceID := GetDeviceID(r)
			if deviceID == "" {
				deviceID = "-"
			}

			log.Printf("%s %s %d %v user=%s device=%s addr=%s",
				r.Method, r.URL.Path, rec.status, time.Since(start), userID, deviceID, r.RemoteAddr)
		})
	}
}
