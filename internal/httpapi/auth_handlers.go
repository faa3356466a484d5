package httpapi

import (
	"net/http"
	"time"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/auth"
	"backoffice.app/internal/validate"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) Validate(v *validate.Validator) {
	v.String("email", req.Email, validate.Required())
	v.String("password", req.Password, validate.Required())
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     *string `json:"role"`
}

func (req registerRequest) Validate(v *validate.Validator) {
	v.String("email", req.Email, validate.Required(), validate.Email())
	v.String("password", req.Password, validate.Required(), validate.MinLength(minPasswordLength))
	v.Optional("role", req.Role, validate.OneOf(auth.RoleNames()...))
}

// userView is the account as exposed by the auth routes, keyed by email.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResponse struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

func newUserView(acct auth.PublicAccount) userView {
	return userView{
		ID:        acct.ID,
		Email:     acct.Username,
		Role:      acct.Role,
		CreatedAt: acct.CreatedAt,
		UpdatedAt: acct.UpdatedAt,
	}
}

func (a *API) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Check(req); err != nil {
		return err
	}
	acct, ok, err := a.accounts.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("invalid email or password")
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: newUserView(acct)})
	return nil
}

func (a *API) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validate.Check(req); err != nil {
		return err
	}
	in := auth.CreateInput{Username: req.Email, Password: req.Password}
	if req.Role != nil {
		in.Role = *req.Role
	}
	acct, err := a.accounts.Create(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User created successfully", User: newUserView(acct)})
	return nil
}
