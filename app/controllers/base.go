package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Renderer executes a named page template.
type Renderer interface {
	Render(w io.Writer, name string, data views.Data) error
}

// responder holds what every controller needs to answer a request.
type responder struct {
	views Renderer
	log   *zap.Logger
}

func newResponder(v Renderer, log *zap.Logger) responder {
	if log == nil {
		log = zap.NewNop()
	}
	return responder{views: v, log: log}
}

// wantsJSON reports whether the client should get JSON instead of a page.
func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || middleware.IsAPI(r) || isJSONBody(r)
}

func currentUser(r *http.Request) *models.User {
	return middleware.UserFrom(r.Context())
}

// renderBytes renders a page with the current user added to its context.
func (c *responder) renderBytes(r *http.Request, name string, data views.Data) ([]byte, error) {
	if data == nil {
		data = views.Data{}
	}
	if _, ok := data["user"]; !ok {
		data["user"] = currentUser(r)
	}
	var buf bytes.Buffer
	if err := c.views.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *responder) render(w http.ResponseWriter, r *http.Request, status int, name string, data views.Data) {
	body, err := c.renderBytes(r, name, data)
	if err != nil {
		c.log.Error("template error", zap.String("template", name), zap.Error(err))
		c.sendError(w, r, "Template error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, body)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (c *responder) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.log.Warn("encode response", zap.Error(err))
	}
}

func (c *responder) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		c.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// NotFound renders the 404 page.
func (c *responder) NotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		c.sendJSON(w, http.StatusNotFound, map[string]string{"error": "Not found."})
		return
	}
	c.render(w, r, http.StatusNotFound, views.NotFound, views.Data{"path": r.URL.Path})
}

// fail maps a service error onto a response.
func (c *responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe services.FormErrors
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.NotFound(w, r)
	case errors.Is(err, services.ErrForbidden):
		c.sendError(w, r, "You do not have permission to perform this action.", http.StatusForbidden)
	case errors.As(err, &fe):
		if wantsJSON(r) {
			c.sendJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": fe})
			return
		}
		c.sendError(w, r, fe.Error(), http.StatusBadRequest)
	default:
		c.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		c.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
	}
}

func pageParam(r *http.Request) string {
	return r.URL.Query().Get("page")
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func idParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id int) string {
	return "/posts/" + strconv.Itoa(id) + "/"
}
