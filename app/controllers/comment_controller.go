package controllers

import (
	"errors"
	"net/http"

	"yatube/app/services"

	"go.uber.org/zap"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	responder
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService, v Renderer, log *zap.Logger) *CommentController {
	return &CommentController{responder: newResponder(v, log), comments: comments}
}

// Index handles listing all comments for a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(r, "id")
	if !ok {
		cc.NotFound(w, r)
		return
	}
	comments, err := cc.comments.ListPostComments(postID)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

// Create adds a comment and returns to the post. An empty comment is
// dropped without an error page.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(r, "id")
	if !ok {
		cc.NotFound(w, r)
		return
	}

	var form services.CommentForm
	if isJSONBody(r) {
		if err := decodeJSON(r, &form); err != nil {
			cc.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			cc.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		form.Text = r.PostFormValue("text")
	}

	comment, err := cc.comments.AddComment(currentUser(r), postID, form)
	var fe services.FormErrors
	switch {
	case errors.As(err, &fe) && !wantsJSON(r):
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return
	case err != nil:
		cc.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		cc.sendJSON(w, http.StatusCreated, comment)
		return
	}
	http.Redirect(w, r, postURL(postID), http.StatusFound)
}
