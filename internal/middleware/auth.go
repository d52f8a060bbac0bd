package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/api/transport"
	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/httpcontext"
)

// Authenticator resolves bearer tokens; *gate.Gate satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// JWTAuth rejects requests without a valid bearer token and records the
// caller's identity for the handlers.
func JWTAuth(auth Authenticator, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, domain.ErrUnauthorized)
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			identity, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				logger.Warn("request not authenticated",
					zap.String("path", string(ctx.Path())),
					zap.Error(err))
				reject(ctx, err)
				return
			}

			httpcontext.SetIdentity(ctx, identity)
			next(ctx)
		}
	}
}

func reject(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusUnauthorized
	code := domain.ErrCodeUnauthorized
	if domain.IsRetryable(err) {
		status = http.StatusServiceUnavailable
		code = domain.ErrCodeUnavailable
	}
	body, _ := json.Marshal(transport.NewError(string(code), domain.PublicMessage(err), nil, transport.NewMeta(httpcontext.RequestID(ctx))))
	ctx.Response.Header.SetContentType("application/json")
	if status == http.StatusUnauthorized {
		ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="focus"`)
	}
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
