package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"blogd/internal/apperr"
	"blogd/internal/auth"
	"blogd/internal/validate"
)

// UserStore is the user repository surface the handlers drive. Satisfied by
// *auth.Store; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, u *auth.User) error
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

var _ UserStore = (*auth.Store)(nil)

type AuthHandler struct {
	Users UserStore
	JWT   *auth.JWT
}

type signUpReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, apperr.BadRequest("malformed request body"))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if f := validate.SignUp(req.Email, req.Password, req.Name); !f.OK() {
		WriteError(w, r, apperr.Validation(f))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	u := auth.User{Email: req.Email, PasswordHash: hash, Name: req.Name}
	if err := h.Users.Create(r.Context(), &u); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			WriteError(w, r, apperr.Conflict("email already registered"))
			return
		}
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, userDTO{ID: u.ID, Email: u.Email, Name: u.Name})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, apperr.BadRequest("malformed request body"))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if f := validate.SignIn(req.Email, req.Password); !f.OK() {
		WriteError(w, r, apperr.Validation(f))
		return
	}

	// same message for unknown email and wrong password
	u, err := h.Users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrNoUser) {
			WriteError(w, r, apperr.Unauthorized("incorrect email or password"))
			return
		}
		WriteError(w, r, err)
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		WriteError(w, r, apperr.Unauthorized("incorrect email or password"))
		return
	}

	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"token": token})
}
