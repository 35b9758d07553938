package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"pgnest/config"
	"pgnest/infras/jwt"
	"pgnest/infras/otel"
	"pgnest/shared/cache"
	"pgnest/shared/constant"
	"pgnest/shared/failure"
	"pgnest/transport/http/response"
)

// App bundles the request middlewares wired into the router.
type App interface {
	Auth(http.Handler) http.Handler
	RequireAdmin(http.Handler) http.Handler
	RateLimit() func(http.Handler) http.Handler
}

type appMiddleware struct {
	config     *config.Config
	cache      cache.RedisCache
	jwtService jwt.JWT
	otel       otel.Otel
}

func New(config *config.Config, cache cache.RedisCache, jwtService jwt.JWT, otel otel.Otel) App {
	return &appMiddleware{
		config:     config,
		cache:      cache,
		jwtService: jwtService,
		otel:       otel,
	}
}

// Auth validates the bearer token and stores the caller's identity in
// the request context. Identity is issued elsewhere; this middleware
// only verifies it.
func (a *appMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := a.otel.NewScope(ctx, constant.OtelHandlerScopeName, "auth.middleware")

		authHeader := request.Header.Get(constant.RequestHeaderAuthorization)
		if authHeader == "" {
			err := failure.Unauthorized("Missing authorization header")
			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		tokenString, err := jwt.ExtractTokenFromHeader(authHeader)
		if err != nil {
			err := failure.Unauthorized("Invalid authorization header format")
			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		claims, err := a.jwtService.ValidateToken(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token expired"
			}

			err := failure.Unauthorized(msg)
			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.TokenID)

		scope.End()
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// RequireAdmin rejects callers whose validated role is not admin.
// Must run after Auth.
func (a *appMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		role, _ := request.Context().Value(constant.ContextKeyUserRole).(string)

		if role != constant.RoleAdmin {
			response.WithError(writer, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(writer, request)
	})
}

const cacheKeyRateLimit = "limiter"

func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.config.App.RateLimiter.Enable {
				next.ServeHTTP(w, r)

				return
			}

			maxReqs := a.config.App.RateLimiter.MaxRequests
			windowSecs := a.config.App.RateLimiter.WindowSeconds

			cacheKey := cacheKeyRateLimit + ":" + a.getClientIP(r) + ":" + a.getUA(r)

			var count int
			err := a.cache.Get(r.Context(), cacheKey, &count)

			if err != nil {
				if errors.Is(err, cache.CacheNil) {
					count = 1
				} else {
					// If cache fails, allow the request to continue
					next.ServeHTTP(w, r)

					return
				}
			} else {
				count++
			}

			if count > maxReqs {
				response.WithRequestLimitExceeded(w)

				return
			}

			err = a.cache.Save(r.Context(), cacheKey, count, windowSecs)
			if err != nil {
				// If cache save fails, allow the request to continue
				next.ServeHTTP(w, r)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")

		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func (a *appMiddleware) getUA(r *http.Request) string {
	ua := r.UserAgent()
	if ua == "" {
		return "unknown"
	}

	return ua
}
