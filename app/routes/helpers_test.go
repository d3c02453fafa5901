package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/app/auth"
	"yatube/app/cache"
	"yatube/app/controllers"
	"yatube/app/media"
	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testCookie = "session"

type testApp struct {
	store    *repositories.Store
	users    *services.AuthService
	tokens   *auth.Tokens
	metrics  *metrics.Metrics
	mediaDir string
	router   *mux.Router
}

func setupTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	store, err := repositories.OpenStore(repositories.StoreOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// setupTestApp wires the whole application on an in-memory database.
func setupTestApp(t *testing.T, loginPerMinute int) *testApp {
	t.Helper()
	app := &testApp{
		store:    setupTestStore(t),
		tokens:   auth.NewTokens("test-secret", time.Hour),
		metrics:  metrics.New(),
		mediaDir: t.TempDir(),
	}
	s := app.store
	log := zap.NewNop()

	mem, err := cache.NewMemory(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	pages := cache.NewPageCache(mem, 20*time.Second, app.metrics, log)

	images := media.NewStore(app.mediaDir, 0)
	tpl := views.MustLoad()

	postService := services.NewPostService(s.Posts, s.Comments, s.Users, s.Groups, images, services.DefaultPerPage)
	followService := services.NewFollowService(s.Follows, s.Users, s.Posts, s.Groups, services.DefaultPerPage)
	commentService := services.NewCommentService(s.Comments, s.Posts, s.Users)
	groupService := services.NewGroupService(s.Groups)
	app.users = services.NewAuthService(s.Users, bcrypt.MinCost)

	var limiter *middleware.RateLimiter
	if loginPerMinute > 0 {
		limiter = middleware.NewRateLimiter(loginPerMinute)
	}

	app.router = SetupRoutes(Deps{
		Posts:        controllers.NewPostController(postService, groupService, followService, pages, media.DefaultMaxBytes, tpl, log),
		Comments:     controllers.NewCommentController(commentService, tpl, log),
		Follows:      controllers.NewFollowController(followService, tpl, log),
		Auth:         controllers.NewAuthController(app.users, app.tokens, controllers.SessionOptions{CookieName: testCookie}, tpl, log),
		Tokens:       app.tokens,
		Users:        app.users,
		CookieName:   testCookie,
		Metrics:      app.metrics,
		LoginLimiter: limiter,
		MediaDir:     app.mediaDir,
		Logger:       log,
	})
	return app
}

func (a *testApp) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := a.users.Register(services.SignupForm{
		Username:  username,
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	})
	require.NoError(t, err)
	return u
}

func (a *testApp) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Группа " + slug, Slug: slug, Description: "Описание"}
	require.NoError(t, a.store.Groups.Create(g))
	return g
}

func (a *testApp) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author.ID, Text: text}
	p.SetGroup(group)
	p.BeforeCreate()
	require.NoError(t, a.store.Posts.Create(p))
	return p
}

func (a *testApp) serve(t *testing.T, user *models.User, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := a.tokens.Issue(user.ID, user.Username)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(t *testing.T, user *models.User, target string) *httptest.ResponseRecorder {
	t.Helper()
	return a.serve(t, user, httptest.NewRequest(http.MethodGet, target, nil))
}

func (a *testApp) postForm(t *testing.T, user *models.User, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(t, user, req)
}

func (a *testApp) sendJSON(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(t, nil, req)
}
