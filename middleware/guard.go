package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	authcore "github.com/veloryn/authcore"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the gate result attached by [Guard].
// Downstream handlers use it for ownership checks.
func AuthResultFromContext(ctx context.Context) (*authcore.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authcore.AuthResult)
	return res, ok
}

// Guard returns middleware that runs the authentication gate on every
// request. The client IP and User-Agent are attached to the request
// context first so audit events and refresh records can carry them.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, authcore.ErrEngineNotReady)
				return
			}

			ctx := requestContext(r)

			token, _ := bearerToken(r.Header.Get("Authorization"))
			res, err := engine.Validate(ctx, token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext decorates the request context with caller metadata.
func requestContext(r *http.Request) context.Context {
	ctx := authcore.WithClientIP(r.Context(), clientIP(r))
	if ua := r.UserAgent(); ua != "" {
		ctx = authcore.WithDevice(ctx, ua)
	}
	return ctx
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	status := authcore.HTTPStatus(err)
	body := errorBody{Code: authcore.Code(err)}
	if status >= http.StatusInternalServerError {
		// Infrastructure faults stay generic for the caller.
		body.Error = "internal error"
	} else {
		body.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}

	// SplitHostPort also unbrackets IPv6 literals like "[::1]:8080".
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
