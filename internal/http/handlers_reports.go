package http

import (
	"context"
	"net/http"

	"fintrack/internal/report"
)

type summaryResponse struct {
	report.Totals
	Formatted report.FormattedTotals `json:"formatted"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	txs, err := s.snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals := report.SummarizeTotals(txs)
	NewJSONResponse().Data(summaryResponse{Totals: totals, Formatted: totals.Format()}).Write(w)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	txs, err := s.snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"points": report.GroupByDate(txs)}).Write(w)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	txs, err := s.snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"slices": report.GroupByCategory(txs)}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	d, err := s.txs.Dashboard(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{"categories": s.taxonomy.Categories()}).Write(w)
}
