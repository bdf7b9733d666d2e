package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shingo/auth-api/internal/api/handler"
	"github.com/shingo/auth-api/internal/api/middleware"
	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
)

// adminResource gates the management surface. Grant it at write level to the
// operators allowed to mutate users, roles, and permissions.
const adminResource = "auth -- admin"

// Deps carries the constructed services the router wires into handlers.
// Everything is built in main and injected here.
type Deps struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Roles    ports.RoleService
	UserRepo ports.UserRepository
	DB       *mongo.Database
	RDB      *redis.Client
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("authapi"))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users, d.UserRepo)
	roleHandler := handler.NewRoleHandler(d.Roles)

	authed := middleware.Auth(d.Auth)
	admin := middleware.RequirePermission(d.Auth, adminResource, domain.LevelWrite)

	// Credential and token flows need no prior session.
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/valid", authHandler.Valid)
	e.POST("/auth/access", authHandler.Access)
	e.POST("/auth/reset-token", authHandler.ResetToken)
	e.POST("/auth/reset-password", authHandler.ResetPassword)

	// Permission mutations and impersonation require an admin session.
	g := e.Group("/auth", authed, admin)
	g.POST("/grant/user", authHandler.GrantToUser)
	g.POST("/grant/role", authHandler.GrantToRole)
	g.POST("/revoke/user", authHandler.RevokeFromUser)
	g.POST("/revoke/role", authHandler.RevokeFromRole)
	g.POST("/login-as", authHandler.LoginAs)

	e.GET("/users/me", userHandler.Me, authed)

	u := e.Group("/users", authed, admin)
	u.POST("", userHandler.Create)
	u.GET("/:id", userHandler.Get)
	u.GET("/ext/:ext_id", userHandler.GetByExtID)
	u.PATCH("/:id", userHandler.Patch)
	u.DELETE("/:id", userHandler.Delete)
	u.POST("/roles", userHandler.AddRole)
	u.DELETE("/roles", userHandler.RemoveRole)

	r := e.Group("/roles", authed, admin)
	r.POST("", roleHandler.Create)
	r.DELETE("/:id", roleHandler.Delete)

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.DB, d.RDB)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
