package controllers

import (
	"errors"
	"net/http"

	"yatube/app/services"
	"yatube/app/views"

	"go.uber.org/zap"
)

// FollowController serves the follow feed and (un)subscriptions.
type FollowController struct {
	responder
	follows *services.FollowService
}

func NewFollowController(follows *services.FollowService, v Renderer, log *zap.Logger) *FollowController {
	return &FollowController{responder: newResponder(v, log), follows: follows}
}

// Index shows posts of the authors the current user follows.
func (fc *FollowController) Index(w http.ResponseWriter, r *http.Request) {
	page, err := fc.follows.Feed(currentUser(r), pageParam(r))
	if err != nil {
		fc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		fc.sendJSON(w, http.StatusOK, page)
		return
	}
	fc.render(w, r, http.StatusOK, views.Follow, views.Data{"page_obj": page})
}

// Follow subscribes the current user to the author. Following yourself
// changes nothing.
func (fc *FollowController) Follow(w http.ResponseWriter, r *http.Request) {
	username := muxVar(r, "username")
	_, err := fc.follows.Follow(currentUser(r), username)
	if err != nil && !errors.Is(err, services.ErrFollowSelf) {
		fc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		fc.sendJSON(w, http.StatusOK, map[string]interface{}{"author": username, "following": err == nil})
		return
	}
	http.Redirect(w, r, profileURL(username), http.StatusFound)
}

// Unfollow removes the subscription to the author.
func (fc *FollowController) Unfollow(w http.ResponseWriter, r *http.Request) {
	username := muxVar(r, "username")
	if _, err := fc.follows.Unfollow(currentUser(r), username); err != nil {
		fc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		fc.sendJSON(w, http.StatusOK, map[string]interface{}{"author": username, "following": false})
		return
	}
	http.Redirect(w, r, profileURL(username), http.StatusFound)
}
