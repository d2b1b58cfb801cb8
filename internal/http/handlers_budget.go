package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"preventivi/internal/core"
	"preventivi/internal/services"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "corpo richiesta non valido")
		return
	}

	b.ClientName = sanitizeInput(b.ClientName)
	b.ClientEmail = sanitizeInput(b.ClientEmail)
	b.Notes = sanitizeInput(b.Notes)

	created, err := s.budgets.CreateBudget(r.Context(), b)
	if err != nil {
		slog.WarnContext(r.Context(), "Budget creation refused", "client", b.ClientName, "error", err)
		writeDomainError(w, err)
		return
	}

	s.logx.LogBudgetCreated(r.Context(), created.ID, created.SequenceNumber, created.ClientName, created.TotalValue.String())
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.ListBudgets(r.Context(), parseFilter(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed listing budgets", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "corpo richiesta non valido")
		return
	}
	b.ID = id
	b.ClientName = sanitizeInput(b.ClientName)
	b.ClientEmail = sanitizeInput(b.ClientEmail)
	b.Notes = sanitizeInput(b.Notes)

	if err := s.budgets.UpdateBudget(r.Context(), b); err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := s.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.budgets.DeleteBudget(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Budget deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApproveBudget(w http.ResponseWriter, r *http.Request) {
	s.handleStatusChange(w, r, s.budgets.ApproveBudget, "approved")
}

func (s *Server) handleRejectBudget(w http.ResponseWriter, r *http.Request) {
	s.handleStatusChange(w, r, s.budgets.RejectBudget, "rejected")
}

func (s *Server) handleStatusChange(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, id int64) error, status string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := change(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Budget status changed", "id", id, "status", status)
	b, err := s.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBudgetPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	pdf, err := services.GenerateBudgetPDF(b)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed generating pdf", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "errore generazione pdf")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "preventivo-"+b.PaddedSequence()+".pdf"))
	_, _ = w.Write(pdf)
}

func (s *Server) handleIssueInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := s.budgets.IssueInvoice(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Invoice issued",
		"budget_id", id,
		"invoice_number", inv.Number,
		"amount", inv.Amount.String())
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.budgets.ListInvoices(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed listing invoices", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.budgets.MarkInvoicePaid(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
