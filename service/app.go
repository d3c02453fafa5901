package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"yatube/app/auth"
	"yatube/app/cache"
	"yatube/app/config"
	"yatube/app/controllers"
	"yatube/app/media"
	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/repositories"
	"yatube/app/routes"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App is the fully wired blog service.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *repositories.Store
	Pages   *cache.PageCache
	Metrics *metrics.Metrics
	Handler http.Handler

	closers []func() error
}

// NewApp opens storage and the page cache and builds the router.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: log, Metrics: metrics.New()}

	store, err := repositories.OpenStore(repositories.StoreOptions{
		Path:     cfg.Database.Path,
		InMemory: cfg.Database.InMemory,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	pageStore, ttl, err := openCache(ctx, cfg.Cache)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if pageStore != nil {
		a.closers = append(a.closers, pageStore.Close)
	}
	a.Pages = cache.NewPageCache(pageStore, ttl, a.Metrics, log.Named("cache"))

	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	tpl, err := views.Load()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	images := media.NewStore(cfg.Media.Dir, cfg.Media.MaxUploadBytes)
	perPage := cfg.Pagination.PerPage
	postService := services.NewPostService(store.Posts, store.Comments, store.Users, store.Groups, images, perPage)
	followService := services.NewFollowService(store.Follows, store.Users, store.Posts, store.Groups, perPage)
	commentService := services.NewCommentService(store.Comments, store.Posts, store.Users)
	groupService := services.NewGroupService(store.Groups)
	authService := services.NewAuthService(store.Users, cfg.Auth.BcryptCost)

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	session := controllers.SessionOptions{CookieName: cfg.Auth.CookieName, Secure: cfg.Auth.SecureCookie}
	httpLog := log.Named("http")

	a.Handler = routes.SetupRoutes(routes.Deps{
		Posts:        controllers.NewPostController(postService, groupService, followService, a.Pages, cfg.Media.MaxUploadBytes, tpl, httpLog),
		Comments:     controllers.NewCommentController(commentService, tpl, httpLog),
		Follows:      controllers.NewFollowController(followService, tpl, httpLog),
		Auth:         controllers.NewAuthController(authService, tokens, session, tpl, httpLog),
		Tokens:       tokens,
		Users:        authService,
		CookieName:   cfg.Auth.CookieName,
		Metrics:      a.Metrics,
		LoginLimiter: middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute),
		MediaDir:     cfg.Media.Dir,
		Logger:       httpLog,
	})
	return a, nil
}

// openCache returns the page cache backend and its TTL. The "none"
// driver yields a nil cache with a zero TTL, which disables caching.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, time.Duration, error) {
	switch cfg.Driver {
	case "none":
		return nil, 0, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, 0, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedis(client, ""), cfg.IndexTTL, nil
	default:
		m, err := cache.NewMemory(cfg.MaxBytes)
		if err != nil {
			return nil, 0, err
		}
		return m, cfg.IndexTTL, nil
	}
}

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Config.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln and shuts down gracefully once ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(a.Logger.Named("http")),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("starting yatube", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases storage and cache, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
