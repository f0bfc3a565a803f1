// Package httpapi is the HTTP surface of the development API: a chi router,
// middleware and JSON handlers over the services.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/dmitrijs2005/rainwise/internal/models"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	users   *services.UserService
	catalog *services.CatalogService
	log     logging.Logger
}

func NewHandlers(users *services.UserService, catalog *services.CatalogService, log logging.Logger) *Handlers {
	if log == nil {
		log = logging.Nop{}
	}
	return &Handlers{users: users, catalog: catalog, log: log}
}

// fail writes err as a {message} reply. Unexpected errors are logged.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err, "request_id", RequestIDFrom(r.Context()))
	}
	writeMessage(w, status, msg)
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	a, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info(r.Context(), "user registered", "id", a.ID, "email", a.Email)

	writeJSON(w, http.StatusCreated, models.RegisterResponse{
		Message:                "Registration successful. Please confirm your email.",
		ID:                     a.ID,
		Email:                  a.Email,
		Name:                   a.Name,
		Role:                   a.Role,
		Status:                 a.Status,
		EmailConfirmed:         a.EmailConfirmed,
		EmailConfirmationToken: a.ConfirmationToken,
	})
}

func (h *Handlers) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmEmailRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	if err := h.users.ConfirmEmail(r.Context(), req.Token); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email confirmed successfully")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	s, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(s))
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	s, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(s))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	if err := h.users.Logout(r.Context(), req.RefreshToken); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

func authResponse(s *services.Session) models.AuthResponse {
	return models.AuthResponse{Data: models.AuthResult{
		User:         s.Account.Identity(),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    int64(s.ExpiresIn.Seconds()),
	}}
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	size, err := intParam(r, "pageSize", 10)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, total, err := h.users.ListUsers(r.Context(), page, size)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ListResponse[models.User]{
		Data: list,
		Meta: &models.Meta{Pagination: models.NewPagination(page, size, total)},
	})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DataResponse[models.User]{Data: *u})
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var upd services.UserUpdate
	if err := decodeStrict(w, r, &upd); err != nil {
		writeMessage(w, http.StatusBadRequest, msgMalformedBody)
		return
	}
	u, err := h.users.UpdateUser(r.Context(), id, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DataResponse[models.User]{Message: "User updated", Data: *u})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if claims := ClaimsFrom(r.Context()); claims != nil && claims.UserID == id {
		writeMessage(w, http.StatusConflict, "You cannot delete your own account")
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted")
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, invalidParam("id")
	}
	return id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, invalidParam(name)
	}
	return n, nil
}
