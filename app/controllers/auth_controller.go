package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"yatube/app/auth"
	"yatube/app/models"
	"yatube/app/services"
	"yatube/app/views"

	"go.uber.org/zap"
)

const badLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
}

// AuthController handles signup, login and logout.
type AuthController struct {
	responder
	users   *services.AuthService
	tokens  *auth.Tokens
	session SessionOptions
}

func NewAuthController(users *services.AuthService, tokens *auth.Tokens, session SessionOptions, v Renderer, log *zap.Logger) *AuthController {
	return &AuthController{
		responder: newResponder(v, log),
		users:     users,
		tokens:    tokens,
		session:   session,
	}
}

// Signup creates an account and logs the new user in.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ac.render(w, r, http.StatusOK, views.Signup, views.Data{"form": services.SignupForm{}, "errors": services.FormErrors{}})
		return
	}

	var form services.SignupForm
	if isJSONBody(r) {
		if err := decodeJSON(r, &form); err != nil {
			ac.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			ac.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		form = services.SignupForm{
			FirstName: r.PostFormValue("first_name"),
			LastName:  r.PostFormValue("last_name"),
			Username:  r.PostFormValue("username"),
			Email:     r.PostFormValue("email"),
			Password1: r.PostFormValue("password1"),
			Password2: r.PostFormValue("password2"),
		}
	}

	user, err := ac.users.Register(form)
	var fe services.FormErrors
	switch {
	case errors.As(err, &fe) && !wantsJSON(r):
		form.Password1, form.Password2 = "", ""
		ac.render(w, r, http.StatusOK, views.Signup, views.Data{"form": form, "errors": fe})
		return
	case err != nil:
		ac.fail(w, r, err)
		return
	}

	ac.log.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	ac.startSession(w, r, user, http.StatusCreated, "/")
}

// Login checks credentials and starts a session, then follows ?next=.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if r.Method != http.MethodPost {
		ac.render(w, r, http.StatusOK, views.Login, views.Data{"form": services.LoginForm{}, "errors": services.FormErrors{}, "next": next})
		return
	}

	var form services.LoginForm
	if isJSONBody(r) {
		if err := decodeJSON(r, &form); err != nil {
			ac.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			ac.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		form = services.LoginForm{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}
		if n := safeNext(r.PostFormValue("next")); n != "" {
			next = n
		}
	}

	user, err := ac.users.Authenticate(form)
	var fe services.FormErrors
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		ac.log.Info("failed login", zap.String("username", form.Username))
		if wantsJSON(r) {
			ac.sendError(w, r, badLoginMessage, http.StatusUnauthorized)
			return
		}
		fe = services.FormErrors{}
		fe.Add("", badLoginMessage)
		form.Password = ""
		ac.render(w, r, http.StatusOK, views.Login, views.Data{"form": form, "errors": fe, "next": next})
		return
	case errors.As(err, &fe) && !wantsJSON(r):
		form.Password = ""
		ac.render(w, r, http.StatusOK, views.Login, views.Data{"form": form, "errors": fe, "next": next})
		return
	case err != nil:
		ac.fail(w, r, err)
		return
	}

	if next == "" {
		next = "/"
	}
	ac.startSession(w, r, user, http.StatusOK, next)
}

// Logout ends the session.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ac.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   ac.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// The page is rendered anonymously even though the request carried a user.
	ac.render(w, r, http.StatusOK, views.LoggedOut, views.Data{"user": (*models.User)(nil)})
}

// startSession issues a token, sets it as cookie and answers with either
// the token (API) or a redirect.
func (ac *AuthController) startSession(w http.ResponseWriter, r *http.Request, user *models.User, apiStatus int, redirectTo string) {
	token, err := ac.tokens.Issue(user.ID, user.Username)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ac.session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ac.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   ac.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		ac.sendJSON(w, apiStatus, map[string]interface{}{"token": token, "user": user})
		return
	}
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
