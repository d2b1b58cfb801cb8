package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"preventivi/internal/core"
)

func (s *Server) handleClientReport(w http.ResponseWriter, r *http.Request) {
	groups, err := s.reports.ByClient(r.Context(), parseFilter(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed building client report", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleVendorReport(w http.ResponseWriter, r *http.Request) {
	groups, err := s.reports.ByVendor(r.Context(), parseFilter(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed building vendor report", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleExport streams a report download. Query parameters: mode is
// "clients" or "vendors", format is "csv" (default) or "xlsx".
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	mode := core.ExportMode(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = core.ModeClients
	}
	if mode != core.ModeClients && mode != core.ModeVendors {
		writeError(w, http.StatusBadRequest, "mode non valido: usare clients o vendors")
		return
	}

	format := strings.TrimSpace(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	filter := parseFilter(r)
	stamp := time.Now().Format("20060102")

	switch format {
	case "csv":
		out, err := s.reports.ExportCSV(r.Context(), mode, filter)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed exporting csv", "mode", mode, "error", err)
			writeError(w, http.StatusInternalServerError, "errore esportazione")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report-%s-%s.csv", mode, stamp)))
		_, _ = w.Write(out)
	case "xlsx":
		out, err := s.reports.ExportExcel(r.Context(), mode, filter)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed exporting xlsx", "mode", mode, "error", err)
			writeError(w, http.StatusInternalServerError, "errore esportazione")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report-%s-%s.xlsx", mode, stamp)))
		_, _ = w.Write(out)
	default:
		writeError(w, http.StatusBadRequest, "format non valido: usare csv o xlsx")
	}
}

// handleClientSearch resolves clients from the shared directory.
func (s *Server) handleClientSearch(w http.ResponseWriter, r *http.Request) {
	if s.clients == nil {
		writeError(w, http.StatusServiceUnavailable, "anagrafica clienti non configurata")
		return
	}

	query := sanitizeInput(r.URL.Query().Get("q"))
	results, err := s.clients.Search(r.Context(), query)
	if err != nil {
		slog.ErrorContext(r.Context(), "Client directory search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "anagrafica clienti non raggiungibile")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
