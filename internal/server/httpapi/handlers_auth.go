package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/dmitrijs2005/impacthands/internal/server/services"
)

type otpRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Type  string `json:"type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.ExpiresIn / time.Second),
		ExpiresAt:    s.ExpiresAt.Unix(),
		RefreshToken: s.RefreshToken,
		User:         toUserResponse(s.User),
	}
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := s.auth.SendCode(r.Context(), req.Email, req.RedirectTo); err != nil {
		s.log.Warn(r.Context(), "send code failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Type != "" && req.Type != "email" {
		badRequest(w, "unsupported verification type")
		return
	}
	session, err := s.auth.VerifyCode(r.Context(), req.Email, req.Token)
	if err != nil {
		s.log.Warn(r.Context(), "verify failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "refresh_token" {
		badRequest(w, "unsupported grant_type")
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	session, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := s.auth.SignOut(r.Context(), claims); err != nil {
		s.log.Error(r.Context(), "sign out failed", "user_id", claims.UserID(), "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	user, err := s.auth.GetUser(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
