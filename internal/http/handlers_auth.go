package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"preventivi/internal/auth"
	"preventivi/internal/storage"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo richiesta non valido")
		return
	}

	req.Username = sanitizeInput(req.Username)
	req.FullName = sanitizeInput(req.FullName)
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "username obbligatorio e password di almeno 8 caratteri")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed hashing password", "error", err)
		writeError(w, http.StatusInternalServerError, "errore interno")
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Username, hash, req.FullName)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeError(w, http.StatusConflict, "username gia registrato")
			return
		}
		slog.ErrorContext(r.Context(), "Failed creating user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "errore interno")
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo richiesta non valido")
		return
	}

	user, err := s.users.GetUserByUsername(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "credenziali non valide")
			return
		}
		slog.ErrorContext(r.Context(), "Failed loading user", "error", err)
		writeError(w, http.StatusInternalServerError, "errore interno")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.WarnContext(r.Context(), "Failed login attempt", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "credenziali non valide")
		return
	}

	token, err := s.auth.Issue(user.ID, user.Username)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed issuing token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "errore interno")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token: token,
		User: userResponse{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.FullName,
		},
	})
}
