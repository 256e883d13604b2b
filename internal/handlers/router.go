package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/service"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Verifier  middleware.TokenVerifier
	Orders    *service.OrderService
	Reviews   *service.ReviewService
	Products  *service.ProductService
	Carts     *service.CartService
	Wishlist  *service.WishlistService
	Messages  *service.MessageService
	Accounts  *service.AuthService
	Events    EventSource
	Heartbeat time.Duration
	// Health backs /healthz; nil reports healthy.
	Health    func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger())

	r.GET("/healthz", Health(d.Health))

	userAuth := middleware.UserAuth(d.Verifier)
	adminAuth := middleware.AdminAuth(d.Verifier)

	r.POST("/auth/register", Register(d.Accounts))
	r.POST("/auth/login", Login(d.Accounts))
	r.GET("/auth/me", userAuth, GetMe(d.Accounts))

	r.GET("/products", GetProducts(d.Products))
	r.GET("/products/:id", GetProduct(d.Products))
	r.GET("/reviews", GetReviews(d.Reviews))
	r.POST("/message", CreateMessage(d.Messages))

	r.POST("/orders", userAuth, CreateOrder(d.Orders))
	r.GET("/orders", userAuth, GetOrders(d.Orders))
	r.GET("/orders/:id", userAuth, GetOrder(d.Orders))
	r.PATCH("/orders/:id", adminAuth, UpdateOrderStatus(d.Orders))

	r.POST("/reviews", userAuth, CreateReview(d.Reviews))
	r.GET("/reviews/eligibility", userAuth, ReviewEligibility(d.Reviews))

	user := r.Group("/")
	user.Use(userAuth)
	{
		user.GET("/cart", GetCart(d.Carts))
		user.POST("/cart", AddToCart(d.Carts))
		user.PUT("/cart", UpdateCartItem(d.Carts))
		user.DELETE("/cart", RemoveCartItem(d.Carts))
		user.POST("/cart/clear", ClearCart(d.Carts))

		user.GET("/wishlist", GetWishlist(d.Wishlist))
		user.POST("/wishlist", AddToWishlist(d.Wishlist))
		user.DELETE("/wishlist/:productId", RemoveFromWishlist(d.Wishlist))
		user.POST("/wishlist/clear", ClearWishlist(d.Wishlist))
	}

	admin := r.Group("/admin/api")
	admin.Use(adminAuth)
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		admin.GET("/orders", AdminListOrders(d.Orders))
		admin.GET("/orders/:id", GetOrder(d.Orders))
		admin.PATCH("/orders/:id", UpdateOrderStatus(d.Orders))

		admin.PUT("/products/:id/pricing", UpdateProductPricing(d.Products))
		admin.POST("/products/:id/recompute-rating", RecomputeRating(d.Reviews))

		admin.GET("/messages", AdminListMessages(d.Messages))
		admin.PATCH("/messages/:id", AdminMarkMessage(d.Messages))
		admin.DELETE("/messages/:id", AdminDeleteMessage(d.Messages))

		if d.Events != nil {
			admin.GET("/notifications", Notifications(d.Events, d.Heartbeat))
		}
	}

	return r
}
