package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

// AuthHandler bundles dependencies for login, registration and logout.
type AuthHandler struct {
	Identity *service.IdentityService
	Guard    *session.Guard
}

func NewAuthHandler(identity *service.IdentityService, guard *session.Guard) *AuthHandler {
	return &AuthHandler{Identity: identity, Guard: guard}
}

var (
	loginFields    = []string{"uname", "password"}
	registerFields = []string{"uname", "password", "verify_password", "fname", "lname", "email", "ccard"}
)

// Home reports who is logged in and, for customers, their membership.
func (h *AuthHandler) Home(c echo.Context) error {
	id := session.Current(c)
	resp := echo.Map{"is_user": id.Authenticated, "user": id.Username}
	if !id.Authenticated {
		return c.JSON(http.StatusOK, resp)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Identity.Profile(ctx, id)
	switch {
	case err == nil:
		resp["first_name"] = p.FirstName
		resp["last_name"] = p.LastName
		resp["member_since"] = p.MemberSince.Format(time.DateOnly)
		resp["renewal_date"] = p.RenewalDate.Format(time.DateOnly)
	case errors.Is(err, service.ErrNotFound):
		// Session outlived the customer row; show the bare username.
	default:
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// LoginForm describes the login form.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"form": "login", "fields": loginFields})
}

// Login verifies credentials, starts a session and redirects home.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	custID, err := h.Identity.Login(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.Guard.Establish(c, custID, strings.TrimSpace(in.Username)); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// RegisterForm describes the registration form.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"form": "register", "fields": registerFields})
}

// Register creates the customer and redirects home.  The new customer
// still has to log in.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.Identity.Register(ctx, in); err != nil {
		return respondError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout ends the session and redirects home.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Guard.Clear(c)
	return c.Redirect(http.StatusFound, "/")
}
