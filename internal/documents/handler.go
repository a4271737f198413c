package documents

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/platform/httpx"
	"github.com/facturio/facturio/internal/shared"
)

// Enqueuer pushes background work such as document emails. Nil disables
// asynchronous delivery.
type Enqueuer interface {
	EnqueueDocumentEmail(ctx context.Context, docType string, documentID int64) error
}

// PDFRenderer produces the printable form of a document. Nil disables the
// download endpoints.
type PDFRenderer interface {
	RenderProformaPDF(ctx context.Context, id int64) ([]byte, error)
	RenderInvoicePDF(ctx context.Context, id int64) ([]byte, error)
}

type Handler struct {
	logger    *slog.Logger
	proformas *ProformaService
	invoices  *InvoiceService
	enqueuer  Enqueuer
	pdfs      PDFRenderer
	validate  *validator.Validate
}

func NewHandler(logger *slog.Logger, proformas *ProformaService, invoices *InvoiceService, enqueuer Enqueuer, pdfs PDFRenderer, validate *validator.Validate) *Handler {
	return &Handler{
		logger:    logger,
		proformas: proformas,
		invoices:  invoices,
		enqueuer:  enqueuer,
		pdfs:      pdfs,
		validate:  validate,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/proformas", func(r chi.Router) {
		r.Get("/", h.listProformas)
		r.Post("/", h.createProforma)
		r.Get("/{id}", h.showProforma)
		r.Patch("/{id}", h.updateProforma)
		r.Delete("/{id}", h.deleteProforma)
		r.Post("/{id}/send", h.sendProforma)
		r.Post("/{id}/accept", h.acceptProforma)
		r.Post("/{id}/refuse", h.refuseProforma)
		r.Post("/{id}/duplicate", h.duplicateProforma)
		r.Post("/{id}/convert", h.convertProforma)
		r.Get("/{id}/pdf", h.proformaPDF)
	})
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.createInvoice)
		r.Get("/{id}", h.showInvoice)
		r.Patch("/{id}", h.updateInvoice)
		r.Delete("/{id}", h.deleteInvoice)
		r.Post("/{id}/send", h.sendInvoice)
		r.Post("/{id}/payments", h.addPayment)
		r.Post("/{id}/mark-paid", h.markPaid)
		r.Post("/{id}/cancel", h.cancelInvoice)
		r.Get("/{id}/pdf", h.invoicePDF)
	})
}

// ============================================================================
// PROFORMAS
// ============================================================================

func (h *Handler) listProformas(w http.ResponseWriter, r *http.Request) {
	req := ListProformasRequest{Limit: 50}
	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		st := billing.ProformaStatus(status)
		req.Status = &st
	}
	if clientID, err := strconv.ParseInt(query.Get("client_id"), 10, 64); err == nil {
		req.ClientID = &clientID
	}
	if search := query.Get("search"); search != "" {
		req.Search = &search
	}
	if from, err := time.Parse("2006-01-02", query.Get("from")); err == nil {
		req.From = &from
	}
	if to, err := time.Parse("2006-01-02", query.Get("to")); err == nil {
		req.To = &to
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		req.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset >= 0 {
		req.Offset = offset
	}

	result, total, err := h.proformas.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list proformas failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"proformas": result, "total": total})
}

func (h *Handler) showProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createProforma(w http.ResponseWriter, r *http.Request) {
	var req CreateProformaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.proformas.Create(r.Context(), req, shared.CurrentUserID(r.Context()))
	if err != nil {
		h.logger.Error("create proforma failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateProformaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.proformas.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.proformas.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Send(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueDocumentEmail(r.Context(), "proforma", id); err != nil {
			h.logger.Error("enqueue proforma email failed", slog.Int64("proforma_id", id), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) acceptProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Accept(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) refuseProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Refuse(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) duplicateProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Duplicate(r.Context(), id, shared.CurrentUserID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) convertProforma(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.ConvertFromProforma(r.Context(), id, shared.CurrentUserID(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) proformaPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if h.pdfs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf rendering is not configured")
		return
	}
	p, err := h.proformas.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	content, err := h.pdfs.RenderProformaPDF(r.Context(), id)
	if err != nil {
		h.logger.Error("render proforma pdf failed", slog.Int64("proforma_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.PDF(w, p.Reference+".pdf", content)
}

// ============================================================================
// INVOICES
// ============================================================================

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{Limit: 50}
	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		st := billing.InvoiceStatus(status)
		req.Status = &st
	}
	if clientID, err := strconv.ParseInt(query.Get("client_id"), 10, 64); err == nil {
		req.ClientID = &clientID
	}
	if search := query.Get("search"); search != "" {
		req.Search = &search
	}
	if from, err := time.Parse("2006-01-02", query.Get("from")); err == nil {
		req.From = &from
	}
	if to, err := time.Parse("2006-01-02", query.Get("to")); err == nil {
		req.To = &to
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		req.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset >= 0 {
		req.Offset = offset
	}

	result, total, err := h.invoices.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": result, "total": total})
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inv, err := h.invoices.Create(r.Context(), req, shared.CurrentUserID(r.Context()))
	if err != nil {
		h.logger.Error("create invoice failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inv, err := h.invoices.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.invoices.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.Send(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueDocumentEmail(r.Context(), "invoice", id); err != nil {
			h.logger.Error("enqueue invoice email failed", slog.Int64("invoice_id", id), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inv, err := h.invoices.AddPayment(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.MarkPaid(r.Context(), id, time.Now())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.Cancel(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if h.pdfs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf rendering is not configured")
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	content, err := h.pdfs.RenderInvoicePDF(r.Context(), id)
	if err != nil {
		h.logger.Error("render invoice pdf failed", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.PDF(w, inv.Reference+".pdf", content)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "document id must be numeric")
		return 0, false
	}
	return id, true
}
