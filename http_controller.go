package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the authentication endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.Signup).
		SetName("auth.signup")

	app.Post(controller.Routes.Login, controller.Login).
		SetName("auth.login")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("auth.forgot-password")

	app.Patch(controller.Routes.ResetPassword+"/:token", controller.ResetPassword).
		SetName("auth.reset-password")

	app.Patch(controller.Routes.UpdatePassword, controller.UpdatePassword,
		controller.Middleware.ProtectedRoute(),
	).SetName("auth.update-password")
}

type AuthControllerRoutes struct {
	Signup         string
	Login          string
	ForgotPassword string
	ResetPassword  string
	UpdatePassword string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Routes     *AuthControllerRoutes
	Auther     Authenticator
	Middleware *RouteAuthenticator
	Mailer     Mailer
	Config     Config
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup:         "/signup",
			Login:          "/login",
			ForgotPassword: "/forgotPassword",
			ResetPassword:  "/resetPassword",
			UpdatePassword: "/updatePassword",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Middleware == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerMiddleware(mw *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Middleware = mw
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// Signup creates an account and returns a fresh token.
func (a *AuthController) Signup(ctx router.Context) error {
	payload := new(SignupMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %v", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	var res *SignupResponse
	payload.OnResponse = func(resp *SignupResponse) {
		res = resp
	}

	handler := NewSignupHandler(a.Repo, a.Auther).
		WithPasswordAuthenticator(NewPasswordHasher(a.Config.GetBcryptCost())).
		WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("signup execute: %v", err)
		return WriteError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("signup response: %s", print.MaybePrettyJSON(res.User))
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"status": "success",
		"token":  res.Token,
		"data": map[string]any{
			"user": NewUserRecord(res.User),
		},
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Login verifies credentials and returns a token.
func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	if payload.Email == "" || payload.Password == "" {
		return WriteError(ctx, goerrors.New("please provide email and password", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "success",
		"token":  token,
	})
}

// UpdatePassword rotates the authenticated user's password. Requires the
// protect middleware so the principal is already loaded.
func (a *AuthController) UpdatePassword(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return WriteError(ctx, ErrNotLoggedIn)
	}

	payload := new(UpdatePasswordMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("update password parse payload: %v", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	payload.UserID = user.ID.String()

	var res *UpdatePasswordResponse
	payload.OnResponse = func(resp *UpdatePasswordResponse) {
		res = resp
	}

	handler := NewUpdatePasswordHandler(a.Repo, a.Auther).
		WithPasswordAuthenticator(NewPasswordHasher(a.Config.GetBcryptCost())).
		WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("update password execute: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "success",
		"token":  res.Token,
	})
}

// ForgotPassword emails a single use reset token to the account address.
func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(InitializePasswordResetMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %v", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	handler := NewInitializePasswordResetHandler(a.Repo, a.Mailer, a.Config).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("forgot password execute: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPassword consumes an emailed reset token and sets a new password.
func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(FinalizePasswordResetMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %v", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	payload.Token = ctx.Param("token")

	var res *FinalizePasswordResetResponse
	payload.OnResponse = func(resp *FinalizePasswordResetResponse) {
		res = resp
	}

	handler := NewFinalizePasswordResetHandler(a.Repo, a.Auther).
		WithPasswordAuthenticator(NewPasswordHasher(a.Config.GetBcryptCost())).
		WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("reset password execute: %v", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "success",
		"token":  res.Token,
	})
}
