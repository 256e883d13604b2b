package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

type cartLineRequest struct {
	Product  string `json:"product" binding:"required"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func bindCartLine(c *gin.Context, route string) (service.CartLineInput, bool) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return service.CartLineInput{}, false
	}
	productID, ok := parseObjectID(c, route, "product", req.Product)
	if !ok {
		return service.CartLineInput{}, false
	}
	return service.CartLineInput{ProductID: productID, Size: req.Size, Quantity: req.Quantity}, true
}

/* =========================
   CART
========================= */

func GetCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.Get(ctx, middleware.IdentityFrom(c))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func AddToCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart"
		defer handlePanic(c, route)

		input, ok := bindCartLine(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.Add(ctx, middleware.IdentityFrom(c), input)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func UpdateCartItem(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart"
		defer handlePanic(c, route)

		input, ok := bindCartLine(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.UpdateQuantity(ctx, middleware.IdentityFrom(c), input)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func RemoveCartItem(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		input, ok := bindCartLine(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, err := carts.Remove(ctx, middleware.IdentityFrom(c), input.ProductID, input.Size)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func ClearCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/clear"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.Clear(ctx, middleware.IdentityFrom(c)); err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

/* =========================
   WISHLIST
========================= */

func GetWishlist(wishlist *service.WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		products, err := wishlist.Get(ctx, middleware.IdentityFrom(c))
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func AddToWishlist(wishlist *service.WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist"
		defer handlePanic(c, route)

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, ok := parseObjectID(c, route, "productId", req.ProductID)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := wishlist.Add(ctx, middleware.IdentityFrom(c), productID); err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "added to wishlist"})
	}
}

func RemoveFromWishlist(wishlist *service.WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /wishlist/:productId"
		defer handlePanic(c, route)

		productID, ok := parseObjectID(c, route, "productId", c.Param("productId"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := wishlist.Remove(ctx, middleware.IdentityFrom(c), productID); err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}

func ClearWishlist(wishlist *service.WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist/clear"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := wishlist.Clear(ctx, middleware.IdentityFrom(c)); err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "wishlist cleared"})
	}
}
