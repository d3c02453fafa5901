package routes

import (
	"net/http"

	"yatube/app/auth"
	"yatube/app/controllers"
	"yatube/app/metrics"
	"yatube/app/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps is everything the router needs. Metrics and LoginLimiter are optional.
type Deps struct {
	Posts    *controllers.PostController
	Comments *controllers.CommentController
	Follows  *controllers.FollowController
	Auth     *controllers.AuthController

	Tokens     *auth.Tokens
	Users      middleware.UserLoader
	CookieName string

	Metrics      *metrics.Metrics
	LoginLimiter *middleware.RateLimiter
	MediaDir     string
	Logger       *zap.Logger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(d Deps) *mux.Router {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := mux.NewRouter().StrictSlash(true)

	// Global middleware, in order of execution.
	global := []mux.MiddlewareFunc{
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recoverer(log),
		middleware.Authenticate(d.Tokens, d.Users, d.CookieName, log),
	}
	if d.Metrics != nil {
		router.Use(middleware.Metrics(d.Metrics))
	}
	router.Use(global...)

	login := func(f http.HandlerFunc) http.Handler { return middleware.LoginRequired(f) }
	limited := func(f http.HandlerFunc) http.Handler {
		if d.LoginLimiter == nil {
			return f
		}
		return d.LoginLimiter.Limit(f)
	}

	pc, cc, fc, ac := d.Posts, d.Comments, d.Follows, d.Auth

	// Uploaded images
	if d.MediaDir != "" {
		router.PathPrefix("/media/").Handler(
			http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir)))).Methods("GET", "HEAD")
	}
	if d.Metrics != nil {
		router.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	}

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("/", pc.Index).Methods("GET")
	apiPosts.Handle("/", login(pc.Create)).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}/", pc.Show).Methods("GET")
	apiPosts.Handle("/{id:[0-9]+}/", login(pc.Edit)).Methods("PUT", "POST")
	apiPosts.Handle("/{id:[0-9]+}/", login(pc.Delete)).Methods("DELETE")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments/", cc.Index).Methods("GET")
	apiPosts.Handle("/{id:[0-9]+}/comments/", login(cc.Create)).Methods("POST")

	api.HandleFunc("/group/{slug}/", pc.GroupPosts).Methods("GET")
	api.HandleFunc("/profile/{username}/", pc.Profile).Methods("GET")
	api.Handle("/profile/{username}/follow/", login(fc.Follow)).Methods("POST")
	api.Handle("/profile/{username}/unfollow/", login(fc.Unfollow)).Methods("POST")
	api.Handle("/follow/", login(fc.Index)).Methods("GET")

	api.HandleFunc("/auth/signup/", ac.Signup).Methods("POST")
	api.Handle("/auth/login/", limited(ac.Login)).Methods("POST")

	// Web routes
	router.HandleFunc("/", pc.Index).Methods("GET")
	router.HandleFunc("/group/{slug}/", pc.GroupPosts).Methods("GET")
	router.HandleFunc("/profile/{username}/", pc.Profile).Methods("GET")
	router.Handle("/profile/{username}/follow/", login(fc.Follow)).Methods("GET", "POST")
	router.Handle("/profile/{username}/unfollow/", login(fc.Unfollow)).Methods("GET", "POST")
	router.Handle("/follow/", login(fc.Index)).Methods("GET")
	router.Handle("/create/", login(pc.Create)).Methods("GET", "POST")

	posts := router.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("/{id:[0-9]+}/", pc.Show).Methods("GET")
	posts.Handle("/{id:[0-9]+}/edit/", login(pc.Edit)).Methods("GET", "POST")
	posts.Handle("/{id:[0-9]+}/delete/", login(pc.Delete)).Methods("POST")
	posts.Handle("/{id:[0-9]+}/comment/", login(cc.Create)).Methods("POST")

	users := router.PathPrefix("/auth").Subrouter()
	users.HandleFunc("/signup/", ac.Signup).Methods("GET", "POST")
	users.Handle("/login/", limited(ac.Login)).Methods("GET", "POST")
	users.HandleFunc("/logout/", ac.Logout).Methods("GET", "POST")

	// Unmatched requests skip router middleware, so wrap the 404 page explicitly.
	var notFound http.Handler = http.HandlerFunc(pc.NotFound)
	for i := len(global) - 1; i >= 0; i-- {
		notFound = global[i](notFound)
	}
	router.NotFoundHandler = middleware.ContentTypeJSON(notFound)

	return router
}
