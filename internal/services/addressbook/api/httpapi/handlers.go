package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/addressbook/internal/services/addressbook/service"
)

func (h *Handler) handleRegisterProfile(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterProfileInput
	if !h.decode(w, r, &in) {
		return
	}
	view, err := h.svc.RegisterProfile(r.Context(), in)
	h.respond(w, r, http.StatusCreated, view, err)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateProfileInput
	if !h.decode(w, r, &in) {
		return
	}
	view, err := h.svc.UpdateProfile(r.Context(), chi.URLParam(r, "name"), in)
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAddressInput
	if !h.decode(w, r, &in) {
		return
	}
	view, err := h.svc.CreateAddress(r.Context(), chi.URLParam(r, "name"), in)
	h.respond(w, r, http.StatusCreated, view, err)
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAddresses(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, r, http.StatusOK, map[string][]service.AddressView{"addresses": views}, err)
}

func (h *Handler) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetAddress(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "label"))
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateAddressInput
	if !h.decode(w, r, &in) {
		return
	}
	view, err := h.svc.UpdateAddress(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "label"), in)
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.DeleteAddress(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "label"))
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.RevertChange(r.Context(), chi.URLParam(r, "token"))
	h.respond(w, r, http.StatusOK, view, err)
}
