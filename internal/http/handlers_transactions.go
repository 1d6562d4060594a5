package http

import (
	"net/http"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	tx, err := req.toTransaction(uid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.coordinator.CreateTransaction(r.Context(), tx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	f := storage.TransactionFilter{
		Limit: queryInt(r, "limit", 0),
	}
	if t := r.URL.Query().Get("type"); t != "" {
		f.Type = core.TransactionType(t)
	}
	if c := queryInt(r, "categoryId", 0); c > 0 {
		f.CategoryID = int64(c)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			respondError(w, r, err)
			return
		}
		f.From = d
	}
	if to := r.URL.Query().Get("to"); to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			respondError(w, r, err)
			return
		}
		f.To = d
	}

	txs, err := s.ledger.List(r.Context(), uid, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleRetractTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.coordinator.RetractTransaction(r.Context(), uid, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
