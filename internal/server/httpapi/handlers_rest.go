package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 64 << 10

// ownUserID returns the caller's id when it matches the {userID} parameter.
func ownUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, _ := ClaimsFrom(r.Context())
	if chi.URLParam(r, "userID") != claims.UserID() {
		writeError(w, common.WithMessage(common.ErrorUnauthorized, "permission denied for profile"))
		return "", false
	}
	return claims.UserID(), true
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUserID(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownUserID(w, r)
	if !ok {
		return
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	var patch models.ProfilePatch
	if err := dec.Decode(&patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.profiles.Update(r.Context(), userID, patch); err != nil {
		s.log.Warn(r.Context(), "profile update failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var e models.Enrollment
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&e); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	out, err := s.enrollments.Create(r.Context(), claims.UserID(), &e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	list, err := s.enrollments.List(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*models.Enrollment{}
	}
	writeJSON(w, http.StatusOK, list)
}
