package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mepiyou/myfirstfront/internal/handlers"
	"github.com/Mepiyou/myfirstfront/internal/middleware"
)

// CORSMiddleware allows exactly one front-end origin to talk to the
// shell.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter wires every endpoint of the application shell.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware(h.Config.CORSOrigin))

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!", "online": h.Syncer.Online()})
		})

		// --- Auth ---
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/logout", h.Logout)
		v1.GET("/auth/session", h.Session)

		// --- Catalog ---
		v1.GET("/products", h.GetProducts)

		// --- Theme ---
		v1.GET("/theme", h.GetTheme)
		v1.PUT("/theme", h.SetTheme)

		// --- Cart ---
		v1.GET("/cart", h.GetCart)
		v1.DELETE("/cart", h.ClearCart)
		v1.POST("/cart/items", h.AddCartItem)
		v1.PUT("/cart/items/:id", h.SetCartQuantity)
		v1.POST("/cart/items/:id/increment", h.IncrementCartItem)
		v1.POST("/cart/items/:id/decrement", h.DecrementCartItem)
		v1.DELETE("/cart/items/:id", h.RemoveCartItem)
		v1.GET("/cart/checkout-link", h.CheckoutLink)

		// --- Notification stream ---
		v1.GET("/events", h.Events)

		// --- Admin (stored token required) ---
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireToken(h.Tokens))
		{
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.GET("/queue", h.GetQueue)
			admin.POST("/sync", h.TriggerSync)
		}
	}

	return router
}
