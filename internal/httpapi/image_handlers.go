package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"backoffice.app/internal/media"
)

func (a *API) createImage(w http.ResponseWriter, r *http.Request) error {
	var req media.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	img, err := a.images.Create(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, img)
	return nil
}

func (a *API) listImages(w http.ResponseWriter, r *http.Request) error {
	imgs, err := a.images.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, imgs)
	return nil
}

func (a *API) getImage(w http.ResponseWriter, r *http.Request) error {
	img, err := a.images.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, img)
	return nil
}

func (a *API) deleteImage(w http.ResponseWriter, r *http.Request) error {
	if err := a.images.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
