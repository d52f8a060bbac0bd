package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/api/transport"
	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/usecase/gate"
)

type SessionHandler struct {
	baseHandler
}

func NewSessionHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{baseHandler: newBaseHandler(g, adapter, logger)}
}

// @Summary List sessions, newest first
// @Tags sessions
// @Router /api/v1/sessions [get]
func (h *SessionHandler) GetSessions(ctx *fasthttp.RequestCtx) {
	p, ok := h.page(ctx)
	if !ok {
		return
	}
	h.query(ctx, gate.QrySessionList, p)
}

// @Summary Start a session
// @Tags sessions
// @Router /api/v1/sessions [post]
func (h *SessionHandler) StartSession(ctx *fasthttp.RequestCtx) {
	var req gate.StartSession
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusCreated, gate.CmdSessionStart, req)
}

// @Summary Active session
// @Tags sessions
// @Router /api/v1/sessions/active [get]
func (h *SessionHandler) GetActiveSession(ctx *fasthttp.RequestCtx) {
	h.query(ctx, gate.QrySessionActive, nil)
}

// @Summary Get session
// @Tags sessions
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(ctx *fasthttp.RequestCtx) {
	h.query(ctx, gate.QrySessionGet, gate.ByID{ID: pathParam(ctx, "id")})
}

// @Summary End a session
// @Tags sessions
// @Router /api/v1/sessions/{id}/end [post]
func (h *SessionHandler) EndSession(ctx *fasthttp.RequestCtx) {
	var req transport.EndSessionRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusOK, gate.CmdSessionEnd, gate.EndSession{ID: pathParam(ctx, "id"), Completed: req.Completed})
}
