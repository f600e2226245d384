package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type accessEntry struct {
	Time      string `json:"ts"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Bytes     int    `json:"bytes"`
	Elapsed   int64  `json:"elapsed_ms"`
	RequestID string `json:"request_id,omitempty"`
	Client    string `json:"client,omitempty"`
}

// AccessLog writes one JSON line per request to the process log.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		entry := accessEntry{
			Time:      start.UTC().Format(time.RFC3339Nano),
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    ww.Status(),
			Bytes:     ww.BytesWritten(),
			Elapsed:   time.Since(start).Milliseconds(),
			RequestID: GetRequestID(r.Context()),
			Client:    clientAddr(r),
		}
		if entry.Status == 0 {
			entry.Status = http.StatusOK
		}

		line, err := json.Marshal(entry)
		if err != nil {
			log.Printf("failed to marshal access log entry: %v", err)
			return
		}
		log.Println(string(line))
	})
}

// clientAddr prefers proxy headers over the socket peer address.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
