package api

import (
	"errors"
	"net/http"

	"github.com/dunamismax/clipit/internal/auth"
	"github.com/dunamismax/clipit/internal/domain"
	"github.com/dunamismax/clipit/internal/id"
)

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.now()
	user, err := s.store.CreateUser(r.Context(), domain.User{
		ID:           id.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User registered successfully", Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	invalid := domain.Errorf(domain.ErrUnauthorized, "Invalid credentials")
	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		s.fail(w, r, invalid)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		s.fail(w, r, invalid)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user domain.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "User")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	var update domain.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := update.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	updated, err := s.store.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "User")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if user.Role == domain.RoleCreator {
		stats, err := s.store.CreatorStats(r.Context(), user.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	stats, err := s.store.ClipperStats(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "User")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.fail(w, r, err)
		return
	}
	reviews, err := s.store.ListReviews(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r.URL.Query().Get("limit"), domain.DefaultPageSize)
	if err != nil {
		s.fail(w, r, domain.Errorf(domain.ErrValidation, "limit must be a number"))
		return
	}
	entries, err := s.store.Leaderboard(r.Context(), domain.NewPage(1, limit).Size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
