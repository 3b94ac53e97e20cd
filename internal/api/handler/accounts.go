package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

// --------------------------------------------------------------------------
// Request and response bodies
// --------------------------------------------------------------------------

// RegisterRequest is the sign-up body.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,min=8,eqfield=Password"`
	Nickname  string `json:"nickname" validate:"max=50"`
}

// LoginRequest accepts either a username or an email.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ProfileRequest updates the editable profile fields. PATCH applies the
// fields present; PUT additionally requires email.
type ProfileRequest struct {
	Email        *string `json:"email" validate:"omitempty,email"`
	Nickname     *string `json:"nickname" validate:"omitempty,max=50"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

// LoginResponse is returned by password and social login.
type LoginResponse struct {
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
	User    model.UserProfile `json:"user"`
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req and writes a 400 listing every bad field. It reports
// whether req passed.
func (h *Handler) check(w http.ResponseWriter, r *http.Request, req any) bool {
	err := h.validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.writeErr(w, r, err)
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	message := "Invalid input."
	if _, ok := fields["password2"]; ok && len(verrs) == 1 && verrs[0].Tag() == "eqfield" {
		message = "Passwords do not match."
	}
	respond.WriteValidationError(w, message, fields)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "eqfield":
		return "Passwords do not match."
	default:
		return "Invalid value."
	}
}

// profile loads a user with favorites in the public shape.
func (h *Handler) profile(r *http.Request, u model.User) (model.UserProfile, error) {
	favs, err := h.favorites.List(r.Context(), u.ID)
	if err != nil {
		return model.UserProfile{}, err
	}
	return u.Profile(favs), nil
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// Register creates a credential account.
// @Summary Register
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "New account"
// @Success 201 {object} model.UserProfile
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/accounts/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if !h.check(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.store.CreateUser(r.Context(), model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Nickname:     req.Nickname,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.logger.Info("User registered", "user_id", u.ID, "username", u.Username)
	respond.WriteJSONObject(w, http.StatusCreated, u.Profile(nil))
}

// Login exchanges credentials for a token pair.
// @Summary Log in
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/accounts/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if !h.check(w, r, &req) {
		return
	}

	login := req.Username
	if login == "" {
		login = req.Email
	}
	u, err := h.store.GetUserByLogin(r.Context(), strings.TrimSpace(login))
	if errors.Is(err, store.ErrNotFound) {
		err = auth.ErrInvalidCredentials
	}
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeLogin(w, r, u)
}

// writeLogin issues tokens for u and writes the login response.
func (h *Handler) writeLogin(w http.ResponseWriter, r *http.Request, u model.User) {
	pair, err := h.tokens.Issue(r.Context(), u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, err := h.profile(r, u)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, LoginResponse{Access: pair.Access, Refresh: pair.Refresh, User: p})
}

// Logout revokes a refresh token.
// @Summary Log out
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RefreshRequest true "Refresh token to revoke"
// @Success 200 {object} respond.MessageResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if !h.check(w, r, &req) {
		return
	}
	if err := h.tokens.Revoke(r.Context(), req.Refresh); err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteMessage(w, http.StatusOK, "Successfully logged out.")
}

// RefreshToken rotates a refresh token. The presented token stops working.
// @Summary Refresh tokens
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} auth.Pair
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/token/refresh [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if !h.check(w, r, &req) {
		return
	}
	pair, err := h.tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, pair)
}

// CurrentUser returns the authenticated user's profile.
// @Summary Current user
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserProfile
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	u, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, err := h.profile(r, u)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, p)
}

// UpdateProfile changes email, nickname or profile image.
// @Summary Update profile
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProfileRequest true "Fields to change"
// @Success 200 {object} model.UserProfile
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/profile [put]
// @Router /api/accounts/profile [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if r.Method == http.MethodPut && (req.Email == nil || *req.Email == "") {
		respond.WriteValidationError(w, "Invalid input.", map[string]string{"email": "This field is required."})
		return
	}
	if !h.check(w, r, &req) {
		return
	}

	u, err := h.store.UpdateUser(r.Context(), userID, store.UserPatch{
		Email:        req.Email,
		Nickname:     req.Nickname,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, err := h.profile(r, u)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, p)
}
