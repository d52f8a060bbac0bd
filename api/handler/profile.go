package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/api/transport"
	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/usecase/gate"
)

type ProfileHandler struct {
	baseHandler
}

func NewProfileHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{baseHandler: newBaseHandler(g, adapter, logger)}
}

// @Summary Get profile
// @Tags profile
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	h.query(ctx, gate.QryProfileGet, nil)
}

// @Summary Update profile
// @Tags profile
// @Router /api/v1/profile [patch]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusOK, gate.CmdProfileUpdate, gate.UpdateProfile{DisplayName: req.DisplayName})
}
