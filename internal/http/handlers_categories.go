package http

import "net/http"

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	cats, err := s.categories.List(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user"})
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.categories.Create(r.Context(), req.toCategory(uid))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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

	if err := s.categories.Delete(r.Context(), uid, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
