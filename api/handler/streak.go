package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/usecase/gate"
)

type StreakHandler struct {
	baseHandler
}

func NewStreakHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) *StreakHandler {
	return &StreakHandler{baseHandler: newBaseHandler(g, adapter, logger)}
}

// @Summary Current streak
// @Tags streak
// @Router /api/v1/streak [get]
func (h *StreakHandler) GetStreak(ctx *fasthttp.RequestCtx) {
	h.query(ctx, gate.QryStreakGet, nil)
}

// @Summary Recompute the streak from session history
// @Tags streak
// @Router /api/v1/streak/recompute [post]
func (h *StreakHandler) Recompute(ctx *fasthttp.RequestCtx) {
	h.command(ctx, http.StatusOK, gate.CmdStreakRecompute, nil)
}
