package handlers

import (
	"net/http"

	"pantry-server/src/schemas"
	"pantry-server/src/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) PullSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.SyncService.Pull(ctx, userID(r), chi.URLParam(r, "fileType"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) PushSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	// Reject unknown file types before reading a potentially large body.
	fileType := chi.URLParam(r, "fileType")
	if err := services.ValidateFileType(fileType); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	var req schemas.PushRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	res, err := h.SyncService.Push(ctx, userID(r), fileType, &req)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	fileType := r.URL.Query().Get("fileType")
	if fileType == "" {
		res, err := h.SyncService.GetAllStatus(ctx, userID(r))
		if err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		h.respond(w, r, res, http.StatusOK)
		return
	}

	res, err := h.SyncService.GetStatus(ctx, userID(r), fileType)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}

func (h *Handler) DeleteSyncData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.SyncService.Delete(ctx, userID(r), chi.URLParam(r, "fileType"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	h.respond(w, r, res, http.StatusOK)
}
