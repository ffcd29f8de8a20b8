package handlers

import (
	"net/http"

	"pantry-server/src/schemas"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.SignupRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	res, err := h.AuthService.Signup(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusCreated)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.LoginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	res, err := h.AuthService.Login(ctx, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.AuthService.GetCurrentUser(ctx, userID(r))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req schemas.UpdateUserRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	res, err := h.AuthService.UpdateUser(ctx, userID(r), &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}
