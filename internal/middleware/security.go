package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/featurepulse/backend/pkg/clientip"
	"golang.org/x/time/rate"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// --- Credential-endpoint rate limiting (1 req/5s, burst 3, per IP) ---
//
// In-memory on purpose: slowing a single IP's password guessing doesn't need
// cross-replica counters, and the Redis limiter still applies globally.

var (
	authEntries    = make(map[string]*limiterEntry)
	authEntriesMu  sync.Mutex
	authCleanupRun bool
)

const (
	authRateLimitEvery  = 5 * time.Second
	authRateLimitBurst  = 3
	authCleanupInterval = 5 * time.Minute
	authLimiterTTL      = 30 * time.Minute
)

var authPaths = map[string]bool{
	"/api/login":  true,
	"/api/signup": true,
}

func getAuthLimiter(ip string) *rate.Limiter {
	authEntriesMu.Lock()
	defer authEntriesMu.Unlock()
	startAuthCleanupOnce()
	e, ok := authEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(authRateLimitEvery), authRateLimitBurst),
			lastUse: time.Now(),
		}
		authEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startAuthCleanupOnce() {
	if authCleanupRun {
		return
	}
	authCleanupRun = true
	go func() {
		ticker := time.NewTicker(authCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			authEntriesMu.Lock()
			now := time.Now()
			for ip, e := range authEntries {
				if now.Sub(e.lastUse) > authLimiterTTL {
					delete(authEntries, ip)
				}
			}
			authEntriesMu.Unlock()
		}
	}()
}

// AuthRateLimit applies a stricter limit to the credential routes only.
// Use after RateLimitMiddleware.
func AuthRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.ClientIP(r)
		if !getAuthLimiter(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many attempts. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → AuthRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		AuthRateLimit,
	}
}
