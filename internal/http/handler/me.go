package handler

import (
	"errors"
	"net/http"

	"blogd/internal/apperr"
	"blogd/internal/auth"
)

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type MeHandler struct {
	Users UserStore
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	u, err := h.Users.FindByID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, auth.ErrNoUser) {
			// token outlived the account
			WriteError(w, r, apperr.Unauthorized("invalid or expired token"))
			return
		}
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, userDTO{ID: u.ID, Email: u.Email, Name: u.Name})
}
