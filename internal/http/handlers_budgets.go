package http

import "net/http"

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	budget, err := req.toBudget(uid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.budgets.Create(r.Context(), budget)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	views, err := s.budgets.List(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := s.budgets.Get(r.Context(), uid, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.budgets.Delete(r.Context(), uid, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleContributeToBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req contributionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	amount, date, err := req.parse()
	if err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.coordinator.ContributeToBudget(r.Context(), uid, id, amount, req.Description, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}
