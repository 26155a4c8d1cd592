package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flicky/cocktail-api/internal/config"
	"github.com/flicky/cocktail-api/internal/metrics"
	"github.com/flicky/cocktail-api/internal/middleware"
)

// Router bundles what NewRouter needs to build the engine.
type Router struct {
	Auth    *AuthHandler
	User    *UserHandler
	Product *ProductHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Health  *HealthHandler

	JWT     middleware.AuthConfig
	CORS    config.CORSConfig
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

func NewRouter(r Router) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CorrelationID(),
		middleware.RequestLogger(r.Log),
		middleware.Metrics(r.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     r.CORS.AllowOrigins,
			AllowCredentials: r.CORS.AllowCredentials,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationHeader},
			ExposeHeaders:    []string{middleware.CorrelationHeader, "Content-Disposition"},
			MaxAge:           12 * time.Hour,
		}),
	)

	engine.GET("/healthz", r.Health.Healthz)
	engine.GET("/readyz", r.Health.Readyz)
	engine.GET("/metrics", gin.WrapH(r.Metrics.Handler()))

	authn := middleware.AuthMiddleware(r.JWT)
	api := engine.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", r.Auth.Register)
		auth.POST("/login", r.Auth.Login)

		users := api.Group("/user", authn, middleware.AdminOnly())
		users.GET("", r.User.List)
		users.GET("/:id", r.User.GetByID)
		users.POST("", r.User.Create)
		users.PUT("/:id", r.User.Update)
		users.DELETE("/:id", r.User.Delete)

		products := api.Group("/product")
		products.GET("", r.Product.List)
		products.GET("/:id", r.Product.GetByID)

		admin := products.Group("", authn, middleware.AdminOnly())
		admin.GET("/export", r.Product.Export)
		admin.POST("", r.Product.Create)
		admin.PUT("/:id", r.Product.Update)
		admin.DELETE("/:id", r.Product.Delete)

		cart := api.Group("/cart", authn)
		cart.GET("", r.Cart.GetCart)
		cart.POST("/add", r.Cart.AddItem)
		cart.PUT("/update", r.Cart.UpdateItem)
		cart.DELETE("/item/:id", r.Cart.DeleteItem)
		cart.DELETE("/clear", r.Cart.Clear)

		orders := api.Group("/order", authn)
		orders.POST("/checkout", r.Order.Checkout)
		orders.GET("/history", r.Order.History)
		orders.GET("/invoice/order/:orderId", r.Order.GetInvoiceByOrder)
		orders.GET("/invoice/:id", r.Order.GetInvoice)
		orders.GET("/:id", r.Order.GetOrder)
	}

	return engine
}
