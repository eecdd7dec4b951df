package handler

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"loginreg/internal/model"
	"loginreg/internal/service"
)

var registrationFields = []string{
	service.FieldFirstName,
	service.FieldLastName,
	service.FieldEmail,
	service.FieldPassword,
	service.FieldPasswordConfirmation,
}

var loginFields = []string{
	service.FieldEmail,
	service.FieldPassword,
}

// UserResponse is the public rendering of a user. The password hash is never included.
type UserResponse struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ResultResponse mirrors service.Result.
type ResultResponse struct {
	Success bool          `json:"success"`
	Errors  []string      `json:"errors,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
}

// Register handles a registration form.
// POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r, registrationFields)
	if !ok {
		return
	}

	res, err := h.accounts.Register(r.Context(), form)
	if err != nil {
		h.internalError(w, r, "register", err)
		return
	}

	status := http.StatusCreated
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ResultResponse{Success: res.Success, Errors: res.Errors, User: toUserResponse(res.User)})
}

// Login handles a login form.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r, loginFields)
	if !ok {
		return
	}

	res, err := h.accounts.Login(r.Context(), form)
	if err != nil {
		h.internalError(w, r, "login", err)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, ResultResponse{Success: res.Success, Errors: res.Errors, User: toUserResponse(res.User)})
}

// readForm parses the body and keeps the first value of each known field.
func (h *Handler) readForm(w http.ResponseWriter, r *http.Request, fields []string) (service.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return nil, false
	}

	form := make(service.Form, len(fields))
	for _, f := range fields {
		form[f] = r.PostForm.Get(f)
	}
	return form, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.WithFields(logrus.Fields{
		"op":         op,
		"request_id": chimiddleware.GetReqID(r.Context()),
	}).WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
