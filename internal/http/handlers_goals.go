package http

import "net/http"

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	goal, err := req.toGoal(uid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.goals.Create(r.Context(), goal)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	views, err := s.goals.List(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
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

	view, err := s.goals.Get(r.Context(), uid, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleDeleteGoal refunds the goal's net contributions and marks it
// deleted. The refund shows up as income dated today.
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
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

	if err := s.coordinator.DeleteGoal(r.Context(), uid, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleContributeToGoal(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.coordinator.ContributeToGoal(r.Context(), uid, id, amount, req.Description, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// handleWithdrawFromGoal takes money back out of a goal. The income entry
// keeps the goal's refund tag, so projections see the reduced amount.
func (s *Server) handleWithdrawFromGoal(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.coordinator.WithdrawFromGoal(r.Context(), uid, id, amount, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}
