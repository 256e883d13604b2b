package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"
)

/* =======================
   REQUEST MODELS
======================= */

type productPricingRequest struct {
	Price     *float64 `json:"price"`
	OnSale    *bool    `json:"onSale"`
	SalePrice *float64 `json:"salePrice"`
}

// UpdateProductPricing changes list and sale price. Orders already placed
// keep their snapshotted prices.
func UpdateProductPricing(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id/pricing"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		var req productPricingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.UpdatePricing(ctx, middleware.IdentityFrom(c), id, models.SaleUpdate{
			Price:     req.Price,
			OnSale:    req.OnSale,
			SalePrice: req.SalePrice,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
