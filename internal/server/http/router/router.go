package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/server/http/handlers"
	"github.com/shipfire/payflow/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PayflowFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade, facade)
	paymentHandler := handlers.NewPaymentHandler(facade, cfg.PaySuccessURL, logger)

	api := engine.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		if err := facade.HealthCheck(c.Request.Context()); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(facade))
	userAuth.POST("/orders", orderHandler.Create)
	userAuth.GET("/orders", orderHandler.List)
	userAuth.GET("/balance", orderHandler.Balance)

	api.POST("/checkout/orders", orderHandler.GuestCreate)

	webhooks := api.Group("/webhooks")
	webhooks.POST("/stripe", paymentHandler.Webhook(model.ProviderStripe))
	webhooks.POST("/creem", paymentHandler.Webhook(model.ProviderCreem))

	success := engine.Group("/pay/success")
	success.GET("/stripe", paymentHandler.Success(model.ProviderStripe))
	success.GET("/creem", paymentHandler.Success(model.ProviderCreem))

	return engine
}
