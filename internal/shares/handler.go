package shares

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/facturio/facturio/internal/platform/httpx"
	"github.com/facturio/facturio/internal/shared"
)

// PDFSource renders a shared document for the public download endpoint.
type PDFSource interface {
	RenderProformaPDF(ctx context.Context, id int64) ([]byte, error)
	RenderInvoicePDF(ctx context.Context, id int64) ([]byte, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	pdfs     PDFSource
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, pdfs PDFSource, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, pdfs: pdfs, validate: validate}
}

// MountRoutes registers the authenticated share management endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/proformas/{id}/shares", h.createProformaShare)
	r.Get("/proformas/{id}/shares", h.listProformaShares)
	r.Post("/invoices/{id}/shares", h.createInvoiceShare)
	r.Get("/invoices/{id}/shares", h.listInvoiceShares)
	r.Post("/shares/{id}/revoke", h.revoke)
	r.Get("/shares/{id}/qr", h.qrCode)
}

// MountPublicRoutes registers the tokenized endpoints outside authentication.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/share/{token}", h.view)
	r.Get("/share/{token}/pdf", h.downloadPDF)
}

func (h *Handler) createProformaShare(w http.ResponseWriter, r *http.Request) {
	h.createShare(w, r, KindProforma)
}

func (h *Handler) createInvoiceShare(w http.ResponseWriter, r *http.Request) {
	h.createShare(w, r, KindInvoice)
}

func (h *Handler) createShare(w http.ResponseWriter, r *http.Request, kind DocumentKind) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req CreateShareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	share, err := h.service.Create(r.Context(), kind, id, req, shared.CurrentUserID(r.Context()))
	if err != nil {
		h.logger.Error("create share failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"share": share,
		"url":   h.service.PublicURL(share),
	})
}

func (h *Handler) listProformaShares(w http.ResponseWriter, r *http.Request) {
	h.listShares(w, r, KindProforma)
}

func (h *Handler) listInvoiceShares(w http.ResponseWriter, r *http.Request) {
	h.listShares(w, r, KindInvoice)
}

func (h *Handler) listShares(w http.ResponseWriter, r *http.Request, kind DocumentKind) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListForDocument(r.Context(), kind, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shares": result})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	share, err := h.service.Revoke(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, share)
}

func (h *Handler) qrCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	share, err := h.service.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	png, err := h.service.QRCode(share)
	if err != nil {
		h.logger.Error("qr encode failed", slog.Int64("share_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.PNG(w, png)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	share, err := h.service.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, share)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	share, err := h.service.ResolveForDownload(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var content []byte
	switch share.DocumentKind {
	case KindProforma:
		content, err = h.pdfs.RenderProformaPDF(r.Context(), share.DocumentID)
	case KindInvoice:
		content, err = h.pdfs.RenderInvoicePDF(r.Context(), share.DocumentID)
	}
	if err != nil {
		h.logger.Error("shared pdf render failed", slog.String("token", share.Token), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.PDF(w, fmt.Sprintf("%s-%d.pdf", share.DocumentKind, share.DocumentID), content)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be numeric")
		return 0, false
	}
	return id, true
}
