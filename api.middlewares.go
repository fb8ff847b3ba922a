package main

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}

// MiddlewaresStacks builds the middlewares stacks applied to public,
// session-protected and ops endpoints. The auth middleware is the only
// difference between the public and the protected stacks.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares, *Middlewares) {
	public := Middlewares{
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.CoreMiddleware,
		CORSMiddleware,
		api.PanicRecoveryMiddleware,
	}
	if api.limiter != nil {
		public = append(public, api.RateLimitMiddleware)
	}

	private := make(Middlewares, len(public), len(public)+1)
	copy(private, public)
	private = append(private, api.AuthMiddleware)

	ops := Middlewares{
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
	}
	return &public, &private, &ops
}

// CoreMiddleware setup the duration measurement for each request, records the
// response code into the internal statistics and prometheus collectors and
// logs the request details.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestID := GetValueFromContext(r.Context(), ContextRequestID)

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		sw := newStatsResponseWriter(w)
		next(sw, r, ps)

		duration := time.Since(start)
		api.stats.mu.Lock()
		api.stats.status[sw.Status()]++
		api.stats.mu.Unlock()
		api.metrics.RequestsTotal.WithLabelValues(strconv.Itoa(sw.Status())).Inc()
		api.metrics.RequestDuration.Observe(duration.Seconds())

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Int("response.code", sw.Status()),
			zap.Int("response.bytes", sw.Bytes()),
			zap.Duration("request.duration", duration),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), ContextRequestNumber, atomic.AddUint64(&api.stats.called, 1))
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// RequestIDMiddleware generates and add a unique id to the request context.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.ids.Generate(RequestIDPrefix)
		ctx := context.WithValue(r.Context(), ContextRequestID, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers, Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, User-Agent, Accept-Language, Referer, DNT, Connection, Pragma, Cache-Control, TE")
		next(w, r, ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), ContextRequestID)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to process the request.", EmptyData)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// AuthMiddleware resolves the bearer token into a session and attaches it to
// the request context. Requests without a valid session are rejected with 401.
func (api *APIHandler) AuthMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		token := GetBearerToken(r)
		if token == "" {
			errResp := NewAPIError(requestID, http.StatusUnauthorized, "missing or malformed authorization header.", EmptyData)
			if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send unauthorized response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		session, err := api.sessions.Get(r.Context(), token)
		if err != nil {
			api.logger.Info("rejected request with invalid session", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusUnauthorized, "invalid or expired session.", EmptyData)
			if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send unauthorized response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		ctx := context.WithValue(r.Context(), ContextSession, session)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// RateLimitMiddleware enforces a per-client ip requests rate limit.
func (api *APIHandler) RateLimitMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !api.limiter.Allow(GetRequestSourceIP(r)) {
			requestID := GetValueFromContext(r.Context(), ContextRequestID)
			errResp := NewAPIError(requestID, http.StatusTooManyRequests, "too many requests. please slow down.", EmptyData)
			if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send rate limit response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		next(w, r, ps)
	}
}

// clientLimiter tracks a client token bucket and its last use for pruning.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter maintains one token bucket per client ip.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perSecond rate.Limit
	burst     int
}

// NewClientRateLimiter provides a ready to use per-client rate limiter.
func NewClientRateLimiter(perSecond float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients:   make(map[string]*clientLimiter),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
	}
}

// Allow reports whether the request from the given client ip can proceed.
// Client entries idle for more than an hour are pruned on the way.
func (crl *ClientRateLimiter) Allow(ip string) bool {
	crl.mu.Lock()
	defer crl.mu.Unlock()

	now := time.Now()
	for addr, client := range crl.clients {
		if now.Sub(client.lastSeen) > time.Hour {
			delete(crl.clients, addr)
		}
	}

	client, ok := crl.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(crl.perSecond, crl.burst)}
		crl.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}
