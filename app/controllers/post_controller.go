package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"yatube/app/cache"
	"yatube/app/media"
	"yatube/app/models"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	maxUploadMemory = 8 << 20
	// formOverhead is the room left in a post body for the text, group
	// and multipart framing on top of the image itself.
	formOverhead = 1 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// PostController handles HTTP requests for blog posts
type PostController struct {
	responder
	posts   *services.PostService
	groups  *services.GroupService
	follows *services.FollowService
	pages   *cache.PageCache

	maxUpload int64
}

// NewPostController creates a new PostController
func NewPostController(
	posts *services.PostService,
	groups *services.GroupService,
	follows *services.FollowService,
	pages *cache.PageCache,
	maxUpload int64,
	v Renderer,
	log *zap.Logger,
) *PostController {
	if maxUpload <= 0 {
		maxUpload = media.DefaultMaxBytes
	}
	return &PostController{
		responder: newResponder(v, log),
		posts:     posts,
		groups:    groups,
		follows:   follows,
		pages:     pages,
		maxUpload: maxUpload,
	}
}

// Index lists every post. The rendered page is cached per requested page
// number and viewer, so new or deleted posts show up once the entry
// expires. Spellings of the same number share one entry.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	raw := pageParam(r)
	asJSON := wantsJSON(r)
	format := "html"
	if asJSON {
		format = "json"
	}
	viewer := 0
	if u := currentUser(r); u != nil {
		viewer = u.ID
	}

	key := cache.Key("index", strconv.Itoa(services.ParsePageNumber(raw)), viewer, format)
	body, err := pc.pages.Fetch(r.Context(), key, func() ([]byte, error) {
		page, err := pc.posts.Index(raw)
		if err != nil {
			return nil, err
		}
		if asJSON {
			return json.Marshal(page)
		}
		return pc.renderBytes(r, views.Index, views.Data{"page_obj": page})
	})
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if asJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

// GroupPosts lists the posts of one group.
func (pc *PostController) GroupPosts(w http.ResponseWriter, r *http.Request) {
	group, page, err := pc.posts.GroupPosts(muxVar(r, "slug"), pageParam(r))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{"group": group, "page": page})
		return
	}
	pc.render(w, r, http.StatusOK, views.GroupList, views.Data{"group": group, "page_obj": page})
}

// Profile lists an author's posts along with the follow state of the viewer.
func (pc *PostController) Profile(w http.ResponseWriter, r *http.Request) {
	author, page, err := pc.posts.Profile(muxVar(r, "username"), pageParam(r))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	following, err := pc.follows.IsFollowing(currentUser(r), author)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	followers, followingCount, err := pc.follows.Stats(author)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"author":          author,
			"following":       following,
			"followers_count": followers,
			"following_count": followingCount,
			"page":            page,
		})
		return
	}
	pc.render(w, r, http.StatusOK, views.Profile, views.Data{
		"author":          author,
		"page_obj":        page,
		"following":       following,
		"followers_count": followers,
		"following_count": followingCount,
	})
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		pc.NotFound(w, r)
		return
	}
	post, err := pc.posts.GetPost(id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	count, err := pc.posts.AuthorPostCount(post.AuthorID)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, views.PostDetail, views.Data{
		"post":               post,
		"author_posts_count": count,
		"is_author":          post.IsAuthoredBy(currentUser(r)),
		"comment_form":       services.CommentForm{},
	})
}

// Create shows the new post form and stores submitted posts.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if r.Method != http.MethodPost {
		pc.renderForm(w, r, http.StatusOK, services.PostForm{}, services.FormErrors{}, nil)
		return
	}

	form, cleanup, err := pc.parsePostForm(w, r)
	defer cleanup()
	switch {
	case errors.Is(err, errBodyTooLarge):
		pc.uploadTooLarge(w, r, nil)
		return
	case err != nil:
		pc.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.posts.CreatePost(user, form)
	var fe services.FormErrors
	switch {
	case errors.As(err, &fe) && !wantsJSON(r):
		pc.renderForm(w, r, http.StatusOK, form, fe, nil)
		return
	case err != nil:
		pc.fail(w, r, err)
		return
	}

	pc.log.Info("post created", zap.Int("post_id", post.ID), zap.String("author", user.Username))
	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
}

// Edit lets the author change a post. Anyone else is sent back to the post.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		pc.NotFound(w, r)
		return
	}
	user := currentUser(r)

	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		post, err := pc.posts.GetPost(id)
		if err != nil {
			pc.fail(w, r, err)
			return
		}
		if !post.IsAuthoredBy(user) {
			pc.forbidden(w, r, id)
			return
		}
		pc.renderForm(w, r, http.StatusOK, services.FormFor(post), services.FormErrors{}, post)
		return
	}

	form, cleanup, err := pc.parsePostForm(w, r)
	defer cleanup()
	if errors.Is(err, errBodyTooLarge) {
		post, err := pc.posts.GetPost(id)
		switch {
		case err != nil:
			pc.fail(w, r, err)
		case !post.IsAuthoredBy(user):
			pc.forbidden(w, r, id)
		default:
			pc.uploadTooLarge(w, r, post)
		}
		return
	}
	if err != nil {
		pc.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	post, err := pc.posts.UpdatePost(user, id, form)
	var fe services.FormErrors
	switch {
	case errors.Is(err, services.ErrForbidden):
		pc.forbidden(w, r, id)
		return
	case errors.As(err, &fe) && !wantsJSON(r):
		pc.renderForm(w, r, http.StatusOK, form, fe, post)
		return
	case err != nil:
		pc.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	http.Redirect(w, r, postURL(id), http.StatusFound)
}

// Delete removes a post written by the current user.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		pc.NotFound(w, r)
		return
	}
	user := currentUser(r)

	err := pc.posts.DeletePost(user, id)
	switch {
	case errors.Is(err, services.ErrForbidden):
		pc.forbidden(w, r, id)
		return
	case err != nil:
		pc.fail(w, r, err)
		return
	}

	pc.log.Info("post deleted", zap.Int("post_id", id), zap.String("author", user.Username))
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
}

func (pc *PostController) forbidden(w http.ResponseWriter, r *http.Request, id int) {
	if wantsJSON(r) {
		pc.fail(w, r, services.ErrForbidden)
		return
	}
	http.Redirect(w, r, postURL(id), http.StatusFound)
}

// uploadTooLarge answers a post body cut off by the size limit. The
// submitted fields are lost; an edit form falls back to the stored post.
func (pc *PostController) uploadTooLarge(w http.ResponseWriter, r *http.Request, post *models.Post) {
	msg := fmt.Sprintf("The file is too large. The limit is %s.", humanize.IBytes(uint64(pc.maxUpload)))
	if wantsJSON(r) {
		pc.sendError(w, r, msg, http.StatusRequestEntityTooLarge)
		return
	}
	fe := services.FormErrors{}
	fe.Add("image", msg)
	form := services.PostForm{}
	if post != nil {
		form = services.FormFor(post)
	}
	pc.renderForm(w, r, http.StatusOK, form, fe, post)
}

// renderForm shows create_post.html; post is nil when creating.
func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, status int, form services.PostForm, fe services.FormErrors, post *models.Post) {
	groups, err := pc.groups.ListGroups()
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	data := views.Data{"form": form, "errors": fe, "groups": groups}
	if post != nil {
		data["is_edit"] = true
		data["post_id"] = post.ID
	}
	pc.render(w, r, status, views.CreatePost, data)
}

// postPayload is the JSON body accepted by the API.
type postPayload struct {
	Text  string `json:"text"`
	Group *int   `json:"group"`
}

// parsePostForm reads a post form from a JSON body or a (multipart) form.
// Bodies larger than the upload limit plus formOverhead fail with
// errBodyTooLarge before they are read in full. The returned cleanup
// releases any uploaded file.
func (pc *PostController) parsePostForm(w http.ResponseWriter, r *http.Request) (services.PostForm, func(), error) {
	noop := func() {}
	limit := pc.maxUpload + formOverhead
	if r.ContentLength > limit {
		return services.PostForm{}, noop, errBodyTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if isJSONBody(r) {
		var p postPayload
		if err := decodeJSON(r, &p); err != nil {
			return services.PostForm{}, noop, err
		}
		form := services.PostForm{Text: p.Text}
		if p.Group != nil {
			form.Group = strconv.Itoa(*p.Group)
		}
		return form, noop, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return services.PostForm{}, noop, errBodyTooLarge
		}
		return services.PostForm{}, noop, err
	}
	form := services.PostForm{
		Text:  r.PostFormValue("text"),
		Group: r.PostFormValue("group"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return form, noop, nil
	}
	form.Image = &services.ImageUpload{Filename: header.Filename, Body: file}
	return form, closer(file), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}
