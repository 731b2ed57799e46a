package api

import (
	"time" // Token lifetime

	"pix_gateway/internal/domain"     // Rate profile
	"pix_gateway/internal/middleware" // Auth middlewares

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Service is everything the handlers need from the business layer
type Service interface {
	AccountService
	Payments
	CredentialIssuer
	middleware.ClientAuthenticator
}

// Store is everything the handlers need from persistence
type Store interface {
	middleware.UserLoader
	AdminStore
	CredentialStore
}

// Deps wires the router
type Deps struct {
	Service        Service
	Store          Store
	Redis          *redis.Client // nil disables caching
	JWTSecret      string
	JWTTTL         time.Duration
	BaseRates      domain.RateProfile
	PublicBaseURL  string
	TrustedProxies []string
}

// NewRouter mounts every route under /api
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}

	session := middleware.JWTAuthMiddleware(d.JWTSecret, d.Store)
	api := r.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(d.Service))
	auth.POST("/login", LoginHandler(d.Service, d.JWTSecret, d.JWTTTL))
	auth.GET("/me", session, MeHandler(d.BaseRates))

	// Processor notifications, unauthenticated
	api.POST("/transactions/webhook", WebhookHandler(d.Service, d.Redis))

	// Session money routes
	api.POST("/transactions/create", session, CreateDepositHandler(d.Service, d.Redis))
	api.POST("/transactions/withdraw", session, WithdrawHandler(d.Service, d.Redis))
	api.GET("/transactions", session, ListTransactionsHandler(d.Service, d.Redis))
	api.GET("/balance", session, BalanceHandler(d.Store, d.Redis))

	// Credentials and IP allow-list
	creds := api.Group("/credentials", session)
	creds.POST("/generate", GenerateCredentialHandler(d.Service))
	creds.GET("", GetCredentialHandler(d.Store))
	creds.DELETE("", DeleteCredentialHandler(d.Store))
	creds.GET("/ips", ListAllowedIPsHandler(d.Store))
	creds.POST("/ips", AddAllowedIPHandler(d.Store))
	creds.DELETE("/ips/:id", DeleteAllowedIPHandler(d.Store))

	// Back-office routes, admins and partners
	admin := api.Group("/admin", session, middleware.StaffOnlyMiddleware())
	admin.GET("/users", ListUsersHandler(d.Store))
	admin.GET("/transactions", ListAllTransactionsHandler(d.Store))
	admin.PUT("/users/:id/status", UpdateUserStatusHandler(d.Store, d.Redis))
	admin.PUT("/users/:id/rates", UpdateUserRatesHandler(d.Store))
	admin.PUT("/users/:id/security", UpdateUserSecurityHandler(d.Store))
	admin.PUT("/users/:id/phone", UpdateUserPhoneHandler(d.Store))
	admin.DELETE("/users/:id", CloseAccountHandler(d.Store, d.Redis))
	admin.GET("/logs", ListAPILogsHandler(d.Store))

	// Programmatic API
	api.GET("/v1/docs", DocsHandler(d.PublicBaseURL))
	v1 := api.Group("/v1", middleware.APIKeyMiddleware(d.Service))
	v1.POST("/deposit", CreateDepositHandler(d.Service, d.Redis))
	v1.POST("/withdraw", WithdrawHandler(d.Service, d.Redis))
	v1.GET("/balance", BalanceHandler(d.Store, d.Redis))
	v1.GET("/transactions", ListTransactionsHandler(d.Service, d.Redis))

	return r, nil
}
