package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/focus/api/transport"
	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/httpcontext"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/usecase/gate"
)

type ProofHandler struct {
	baseHandler
}

func NewProofHandler(g *gate.Gate, adapter *httpcontext.Adapter, logger *zap.Logger) *ProofHandler {
	return &ProofHandler{baseHandler: newBaseHandler(g, adapter, logger)}
}

// @Summary Attach a proof reference
// @Tags proofs
// @Router /api/v1/sessions/{id}/proofs [post]
func (h *ProofHandler) AttachProof(ctx *fasthttp.RequestCtx) {
	var req transport.ProofRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusOK, gate.CmdProofAttach, gate.ProofRef{SessionID: pathParam(ctx, "id"), Ref: req.Ref})
}

// @Summary Replace the proof list
// @Tags proofs
// @Router /api/v1/sessions/{id}/proofs [put]
func (h *ProofHandler) ReplaceProofs(ctx *fasthttp.RequestCtx) {
	var req transport.ReplaceProofsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.command(ctx, http.StatusOK, gate.CmdProofReplace, gate.ReplaceProofs{SessionID: pathParam(ctx, "id"), Refs: req.Refs})
}

// @Summary Remove a proof reference; purge=true also deletes the stored image
// @Tags proofs
// @Router /api/v1/sessions/{id}/proofs [delete]
func (h *ProofHandler) RemoveProof(ctx *fasthttp.RequestCtx) {
	req := transport.ProofRequest{Ref: string(ctx.QueryArgs().Peek("ref"))}
	if req.Ref == "" && !h.decodeBody(ctx, &req) {
		return
	}
	name := gate.CmdProofRemove
	if ctx.QueryArgs().GetBool("purge") {
		name = gate.CmdProofPurge
	}
	h.command(ctx, http.StatusOK, name, gate.ProofRef{SessionID: pathParam(ctx, "id"), Ref: req.Ref})
}

// UploadProof accepts either a raw image body with its Content-Type, or a
// JSON document whose data field is a base64 data URL.
//
// @Summary Upload a proof image
// @Tags proofs
// @Router /api/v1/sessions/{id}/proofs/upload [post]
func (h *ProofHandler) UploadProof(ctx *fasthttp.RequestCtx) {
	payload := gate.UploadProof{
		SessionID: pathParam(ctx, "id"),
		FileName:  string(ctx.QueryArgs().Peek("file_name")),
	}

	contentType := string(ctx.Request.Header.ContentType())
	if isJSON(contentType) {
		var req transport.UploadProofRequest
		if !h.decodeBody(ctx, &req) {
			return
		}
		payload.Payload = []byte(req.Data)
		payload.ContentType = req.ContentType
		if req.FileName != "" {
			payload.FileName = req.FileName
		}
	} else {
		payload.Payload = append([]byte(nil), ctx.PostBody()...)
		if !bytes.HasPrefix(payload.Payload, []byte("data:")) {
			payload.ContentType = contentType
		}
	}
	h.command(ctx, http.StatusCreated, gate.CmdProofUpload, payload)
}

// @Summary Download a proof image
// @Tags proofs
// @Router /api/v1/proofs/{ref} [get]
func (h *ProofHandler) DownloadProof(ctx *fasthttp.RequestCtx) {
	owner, ok := h.identity(ctx)
	if !ok {
		return
	}
	ref := strings.TrimPrefix(pathParam(ctx, "ref"), "/")

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.gate.QueryAs(stdCtx, owner, gate.QryProofOpen, gate.OpenProof{Ref: ref})
	if err != nil {
		h.logFailure(stdCtx, gate.QryProofOpen, err)
		h.respondError(ctx, err)
		return
	}
	blob, ok := result.(*repository.Blob)
	if !ok || blob == nil {
		h.respondError(ctx, domain.ErrProofNotFound)
		return
	}
	ctx.Response.Header.SetContentType(blob.ContentType)
	ctx.Response.Header.Set("Cache-Control", "private, max-age=3600")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(blob.Data)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}
