package http

import "net/http"

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	summary, err := s.analytics.DashboardSummary(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	trends, err := s.analytics.MonthlyTrends(r.Context(), uid, queryInt(r, "months", 6))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trends)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	breakdown, err := s.analytics.CategoryBreakdown(r.Context(), uid, queryInt(r, "months", 6))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	txs, err := s.analytics.RecentTransactions(r.Context(), uid, queryInt(r, "limit", 10))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	predictions, err := s.analytics.Predictions(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, predictions)
}
