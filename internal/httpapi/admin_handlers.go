package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/validate"
)

const minPasswordLength = 6

type createAdminRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     *string `json:"role"`
}

func (req createAdminRequest) Validate(v *validate.Validator) {
	v.String("username", req.Username, validate.Required(), validate.MaxLength(255))
	v.String("password", req.Password, validate.Required(), validate.MinLength(minPasswordLength))
	v.Optional("role", req.Role, validate.OneOf(auth.RoleNames()...))
}

type updateAdminRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (req updateAdminRequest) Validate(v *validate.Validator) {
	v.Optional("username", req.Username, validate.Required(), validate.MaxLength(255))
	v.Optional("password", req.Password, validate.MinLength(minPasswordLength))
	v.Optional("role", req.Role, validate.OneOf(auth.RoleNames()...))
}

func (a *API) createAdmin(w http.ResponseWriter, r *http.Request) error {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Check(req); err != nil {
		return err
	}
	in := auth.CreateInput{Username: req.Username, Password: req.Password}
	if req.Role != nil {
		in.Role = *req.Role
	}
	acct, err := a.accounts.Create(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, acct)
	return nil
}

func (a *API) listAdmins(w http.ResponseWriter, r *http.Request) error {
	accts, err := a.accounts.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, accts)
	return nil
}

func (a *API) getAdmin(w http.ResponseWriter, r *http.Request) error {
	acct, err := a.accounts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, acct)
	return nil
}

func (a *API) updateAdmin(w http.ResponseWriter, r *http.Request) error {
	var req updateAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Check(req); err != nil {
		return err
	}
	acct, err := a.accounts.Update(r.Context(), chi.URLParam(r, "id"), auth.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, acct)
	return nil
}

func (a *API) deleteAdmin(w http.ResponseWriter, r *http.Request) error {
	if err := a.accounts.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
