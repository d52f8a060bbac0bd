package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/usecase/gate"
)

type TaskHandler struct {
	baseHandler
}

func NewTaskHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{baseHandler: newBaseHandler(g, adapter, logger)}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	p, ok := h.page(ctx)
	if !ok {
		return
	}
	h.query(ctx, gate.QryTaskList, p)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req gate.CreateTask
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusCreated, gate.CmdTaskCreate, req)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	h.query(ctx, gate.QryTaskGet, gate.ByID{ID: pathParam(ctx, "id")})
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var patch domain.TaskPatch
	if !h.decodeBody(ctx, &patch) {
		return
	}
	h.command(ctx, http.StatusOK, gate.CmdTaskUpdate, gate.UpdateTask{ID: pathParam(ctx, "id"), TaskPatch: patch})
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	h.command(ctx, http.StatusNoContent, gate.CmdTaskDelete, gate.ByID{ID: pathParam(ctx, "id")})
}
