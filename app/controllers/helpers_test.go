package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/app/auth"
	"yatube/app/cache"
	"yatube/app/media"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories/mock"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// recordingRenderer renders with the real templates and remembers the
// last page and context.
type recordingRenderer struct {
	tpl  *views.Templates
	name string
	data views.Data
}

func (r *recordingRenderer) Render(w io.Writer, name string, data views.Data) error {
	r.name = name
	r.data = data
	return r.tpl.Render(w, name, data)
}

// testUploadLimit keeps oversized bodies in tests small.
const testUploadLimit = 64 << 10

type harness struct {
	users    *mock.UserRepository
	groups   *mock.GroupRepository
	posts    *mock.PostRepository
	comments *mock.CommentRepository
	follows  *mock.FollowRepository

	postService *services.PostService
	authService *services.AuthService
	pageCache   *cache.PageCache
	tokens      *auth.Tokens
	renderer    *recordingRenderer
	router      *mux.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    mock.NewUserRepository(),
		groups:   mock.NewGroupRepository(),
		posts:    mock.NewPostRepository(),
		comments: mock.NewCommentRepository(),
		follows:  mock.NewFollowRepository(),
		tokens:   auth.NewTokens("test-secret", time.Hour),
		renderer: &recordingRenderer{tpl: views.MustLoad()},
	}

	mem, err := cache.NewMemory(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	h.pageCache = cache.NewPageCache(mem, 20*time.Second, nil, nil)

	log := zap.NewNop()
	images := media.NewStore(t.TempDir(), testUploadLimit)
	h.postService = services.NewPostService(h.posts, h.comments, h.users, h.groups, images, services.DefaultPerPage)
	h.authService = services.NewAuthService(h.users, bcrypt.MinCost)
	groupService := services.NewGroupService(h.groups)
	followService := services.NewFollowService(h.follows, h.users, h.posts, h.groups, services.DefaultPerPage)
	commentService := services.NewCommentService(h.comments, h.posts, h.users)

	pc := NewPostController(h.postService, groupService, followService, h.pageCache, testUploadLimit, h.renderer, log)
	cc := NewCommentController(commentService, h.renderer, log)
	fc := NewFollowController(followService, h.renderer, log)
	ac := NewAuthController(h.authService, h.tokens, SessionOptions{CookieName: "session"}, h.renderer, log)

	r := mux.NewRouter().StrictSlash(true)
	r.Use(middleware.Authenticate(h.tokens, h.authService, "session", log))
	login := func(f http.HandlerFunc) http.Handler { return middleware.LoginRequired(f) }

	r.HandleFunc("/", pc.Index).Methods("GET")
	r.HandleFunc("/group/{slug}/", pc.GroupPosts).Methods("GET")
	r.HandleFunc("/profile/{username}/", pc.Profile).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/", pc.Show).Methods("GET")
	r.Handle("/create/", login(pc.Create)).Methods("GET", "POST")
	r.Handle("/posts/{id:[0-9]+}/edit/", login(pc.Edit)).Methods("GET", "POST")
	r.Handle("/posts/{id:[0-9]+}/delete/", login(pc.Delete)).Methods("POST")
	r.Handle("/posts/{id:[0-9]+}/comment/", login(cc.Create)).Methods("POST")
	r.HandleFunc("/api/posts/", pc.Index).Methods("GET")
	r.Handle("/api/posts/", login(pc.Create)).Methods("POST")
	r.HandleFunc("/api/posts/{id:[0-9]+}/comments/", cc.Index).Methods("GET")
	r.Handle("/follow/", login(fc.Index)).Methods("GET")
	r.Handle("/profile/{username}/follow/", login(fc.Follow)).Methods("GET", "POST")
	r.Handle("/profile/{username}/unfollow/", login(fc.Unfollow)).Methods("GET", "POST")
	r.HandleFunc("/auth/signup/", ac.Signup).Methods("GET", "POST")
	r.HandleFunc("/auth/login/", ac.Login).Methods("GET", "POST")
	r.HandleFunc("/auth/logout/", ac.Logout).Methods("GET", "POST")
	r.NotFoundHandler = http.HandlerFunc(pc.NotFound)
	h.router = r
	return h
}

func (h *harness) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x"}
	u.BeforeCreate()
	require.NoError(t, h.users.Create(u))
	return u
}

func (h *harness) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Тестовая группа", Slug: slug, Description: "Тестовое описание"}
	require.NoError(t, h.groups.Create(g))
	return g
}

func (h *harness) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author.ID, Text: text}
	p.SetGroup(group)
	p.BeforeCreate()
	require.NoError(t, h.posts.Create(p))
	return p
}

func (h *harness) manyPosts(t *testing.T, author *models.User, group *models.Group, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		h.post(t, author, group, fmt.Sprintf("Тестовый пост %d", i))
	}
}

// do serves a request, logged in as user when it is not nil.
func (h *harness) do(t *testing.T, user *models.User, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := h.tokens.Issue(user.ID, user.Username)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) get(t *testing.T, user *models.User, target string) *httptest.ResponseRecorder {
	t.Helper()
	h.renderer.name, h.renderer.data = "", nil
	return h.do(t, user, httptest.NewRequest(http.MethodGet, target, nil))
}

func (h *harness) postForm(t *testing.T, user *models.User, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	h.renderer.name, h.renderer.data = "", nil
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(t, user, req)
}

func (h *harness) postJSON(t *testing.T, user *models.User, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return h.do(t, user, req)
}

func (h *harness) postCount(t *testing.T) int {
	t.Helper()
	n, err := h.posts.Count()
	require.NoError(t, err)
	return n
}

func httptestGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func itoa(n int) string {
	return fmt.Sprint(n)
}
