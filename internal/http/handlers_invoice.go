package http

import (
	"bytes"
	"errors"
	"net/http"

	"invoicer/internal/core"
	applog "invoicer/internal/log"
	"invoicer/internal/render"
)

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := req.toInvoice()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.deps.Invoices.Create(r.Context(), inv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInvoiceResponse(created))
}

func (s *Server) handleGenerateDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	client := sanitizeInput(req.ClientName)
	if client == "" {
		writeError(w, r, core.Invalid("clientName", core.ErrEmptyClientName))
		return
	}

	services := make([]string, 0, len(req.Services))
	for _, svc := range req.Services {
		if svc = sanitizeInput(svc); svc != "" {
			services = append(services, svc)
		}
	}

	desc := s.deps.Invoices.GenerateDescription(r.Context(), client, req.Amount, services)
	writeJSON(w, http.StatusOK, map[string]string{"description": desc})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Invoices.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceList(list))
}

// handleGetInvoice serves the edit form; a missing invoice is a plain 404.
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.loadInvoice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceResponse(inv))
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := req.toInvoice()
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.deps.Invoices.Update(r.Context(), id, inv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceResponse(updated))
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Invoices.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Invoice deleted successfully")
}

func (s *Server) handleUpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.deps.Invoices.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceResponse(updated))
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	view, inv, ok := s.invoiceView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.WritePDF(&buf, view); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.FileName(inv)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleInvoicePreview(w http.ResponseWriter, r *http.Request) {
	view, _, ok := s.invoiceView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.html.Render(&buf, view); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// loadInvoice fetches the {id} invoice, answering 404 when it is missing.
func (s *Server) loadInvoice(w http.ResponseWriter, r *http.Request) (core.Invoice, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return core.Invoice{}, false
	}
	inv, err := s.deps.Invoices.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "invoice not found")
		return core.Invoice{}, false
	}
	if err != nil {
		writeError(w, r, err)
		return core.Invoice{}, false
	}
	return inv, true
}

// invoiceView loads the invoice and its owner's business settings.
// Settings are optional; a lookup failure only drops the "From" block.
func (s *Server) invoiceView(w http.ResponseWriter, r *http.Request) (render.InvoiceView, core.Invoice, bool) {
	inv, ok := s.loadInvoice(w, r)
	if !ok {
		return render.InvoiceView{}, core.Invoice{}, false
	}
	settings, err := s.deps.Settings.Get(r.Context(), inv.UserID)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Business settings unavailable for render",
			applog.FieldInvoiceID, inv.ID,
			applog.FieldError, err)
		settings = nil
	}
	return render.NewInvoiceView(inv, settings), inv, true
}
