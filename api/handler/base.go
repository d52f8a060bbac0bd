package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/api/transport"
	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/httpcontext"
	appLogger "github.com/fastygo/focus/pkg/logger"
	"github.com/fastygo/focus/usecase/gate"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	gate    *gate.Gate
	logger  *zap.Logger
}

func newBaseHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, gate: g, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// command runs a gate command as the authenticated caller and writes the result.
func (h baseHandler) command(ctx *fasthttp.RequestCtx, status int, name string, payload interface{}) {
	h.dispatch(ctx, status, name, func(stdCtx context.Context, owner domain.Identity) (interface{}, error) {
		return h.gate.CommandAs(stdCtx, owner, name, payload)
	})
}

// query runs a gate query as the authenticated caller and writes the result.
func (h baseHandler) query(ctx *fasthttp.RequestCtx, name string, params interface{}) {
	h.dispatch(ctx, http.StatusOK, name, func(stdCtx context.Context, owner domain.Identity) (interface{}, error) {
		return h.gate.QueryAs(stdCtx, owner, name, params)
	})
}

func (h baseHandler) dispatch(ctx *fasthttp.RequestCtx, status int, name string, run func(context.Context, domain.Identity) (interface{}, error)) {
	owner, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := run(stdCtx, owner)
	if err != nil {
		h.logFailure(stdCtx, name, err)
		h.respondError(ctx, err)
		return
	}
	if status == http.StatusNoContent {
		ctx.SetStatusCode(status)
		return
	}
	h.respondSuccess(ctx, status, result)
}

func (h baseHandler) identity(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := httpcontext.Identity(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrUnauthorized)
		return domain.Identity{}, false
	}
	return identity, true
}

// decodeBody unmarshals a JSON body into dst. An empty body leaves dst untouched.
func (h baseHandler) decodeBody(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil, h.meta(ctx)))
		return false
	}
	return true
}

func (h baseHandler) logFailure(ctx context.Context, name string, err error) {
	log := appLogger.WithRequestID(ctx, h.logger)
	switch domain.CodeOf(err) {
	case domain.ErrCodeInternal:
		log.Error("operation failed", zap.String("operation", name), zap.Error(err))
	case domain.ErrCodeUnavailable:
		log.Warn("operation unavailable", zap.String("operation", name), zap.Error(err))
	default:
		log.Debug("operation rejected", zap.String("operation", name), zap.Error(err))
	}
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, h.meta(ctx)))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, _ := mapError(err)
	h.respondJSON(ctx, status, transport.FromError(err, h.meta(ctx)))
}

func (h baseHandler) meta(ctx *fasthttp.RequestCtx) *transport.Meta {
	return transport.NewMeta(httpcontext.RequestID(ctx))
}

// mapError translates a domain error into an HTTP status and envelope code.
func mapError(err error) (int, string) {
	code := domain.CodeOf(err)
	switch code {
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, string(code)
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(code)
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, string(code)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case domain.ErrCodeConflict:
		return http.StatusConflict, string(code)
	case domain.ErrCodeState:
		return http.StatusUnprocessableEntity, string(code)
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, string(code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func parseInt(name, value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, domain.Invalid("%s must be an integer", name)
	}
	return v, nil
}

// page reads limit and offset from the query string. A malformed value is
// rejected with 400.
func (h baseHandler) page(ctx *fasthttp.RequestCtx) (gate.Page, bool) {
	args := ctx.QueryArgs()
	limit, err := parseInt("limit", string(args.Peek("limit")), 0)
	if err != nil {
		h.respondError(ctx, err)
		return gate.Page{}, false
	}
	offset, err := parseInt("offset", string(args.Peek("offset")), 0)
	if err != nil {
		h.respondError(ctx, err)
		return gate.Page{}, false
	}
	return gate.Page{Limit: limit, Offset: offset}, true
}
