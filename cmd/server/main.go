package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/tours-auth"
	"github.com/goliatone/tours-auth/cmd/server/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	authN  auth.Authenticator
	auther *auth.RouteAuthenticator
	repo   auth.RepositoryManager
	mailer auth.Mailer
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("tours"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	addr := app.Config().GetServer().GetAddr()
	app.GetLogger("server").Info("listening", "addr", addr)
	go app.srv.Serve(addr)

	WaitExitSignal()

	if err := app.srv.Shutdown(ctx); err != nil {
		app.GetLogger("server").Error("shutdown error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))

	pcfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = auth.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithAuth(ctx context.Context, app *App) error {
	acfg := app.Config().GetAuth()

	provider := auth.NewUserProvider(app.repo.Users()).
		WithPasswordAuthenticator(auth.NewPasswordHasher(acfg.GetBcryptCost()))

	app.authN = auth.NewAuthenticator(provider, acfg).
		WithLogger(appLogger{app.GetLogger("auth")})

	auther, err := auth.NewHTTPAuthenticator(app.authN, acfg, app.repo.Users())
	if err != nil {
		return err
	}
	app.auther = auther.WithLogger(appLogger{app.GetLogger("http-auth")})

	smtp := app.Config().GetSMTP()
	if smtp.Enabled() {
		app.mailer = auth.NewSMTPMailer(auth.SMTPMailerConfig{
			Host:     smtp.GetHost(),
			Port:     smtp.GetPort(),
			Username: smtp.GetUsername(),
			Password: smtp.GetPassword(),
			From:     smtp.GetFrom(),
		}).WithLogger(appLogger{app.GetLogger("mailer")})
	} else {
		app.mailer = auth.NewLogMailer(appLogger{app.GetLogger("mailer")})
	}

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter()

	r := srv.Router()

	api := r.Group("/api/v1")

	auth.RegisterAuthRoutes(api.Group("/users"),
		auth.WithControllerRepo(app.repo),
		auth.WithControllerAuther(app.authN),
		auth.WithControllerMiddleware(app.auther),
		auth.WithControllerMailer(app.mailer),
		auth.WithControllerConfig(app.Config().GetAuth()),
		auth.WithControllerLogger(appLogger{app.GetLogger("auth-controller")}),
	)

	protected := app.auther.ProtectedRoute()

	tours := api.Group("/tours")
	tours.Get("/", ToursIndex(app), protected)
	tours.Delete("/:id", TourDelete(app), protected,
		app.auther.RequireRoles(auth.RoleAdmin, auth.RoleLeadGuide))

	users := api.Group("/users")
	users.Get("/", UsersIndex(app), protected,
		app.auther.RequireRoles(auth.RoleAdmin))

	app.srv = srv
	return nil
}

// ToursIndex is a placeholder listing endpoint behind authentication.
func ToursIndex(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		user, ok := auth.CurrentUser(ctx)
		if !ok {
			return auth.WriteError(ctx, auth.ErrNotLoggedIn)
		}
		app.GetLogger("tours").Info("tours list", "user", user.Email)
		return ctx.JSON(router.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"tours": []any{},
			},
		})
	}
}

// TourDelete requires the admin or lead-guide role.
func TourDelete(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		app.GetLogger("tours").Info("tour delete", "id", ctx.Param("id"))
		return ctx.NoContent(router.StatusNoContent)
	}
}

// UsersIndex lists accounts for administrators.
func UsersIndex(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		records, err := app.repo.Users().ListAll(ctx.Context())
		if err != nil {
			return auth.WriteError(ctx, err)
		}

		out := make([]auth.UserRecord, 0, len(records))
		for _, u := range records {
			out = append(out, auth.NewUserRecord(u))
		}

		return ctx.JSON(router.StatusOK, map[string]any{
			"status":  "success",
			"results": len(out),
			"data": map[string]any{
				"users": out,
			},
		})
	}
}

// appLogger adapts glog to the printf style logger the auth package uses.
type appLogger struct {
	lgr glog.Logger
}

func (l appLogger) Debug(format string, args ...any) { l.lgr.Debug(fmt.Sprintf(format, args...)) }
func (l appLogger) Info(format string, args ...any)  { l.lgr.Info(fmt.Sprintf(format, args...)) }
func (l appLogger) Warn(format string, args ...any)  { l.lgr.Warn(fmt.Sprintf(format, args...)) }
func (l appLogger) Error(format string, args ...any) { l.lgr.Error(fmt.Sprintf(format, args...)) }

func WaitExitSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	fmt.Println(print.MaybePrettyJSON(map[string]any{"signal": s.String()}))
	return s
}
