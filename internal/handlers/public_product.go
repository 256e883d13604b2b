package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/service"
)

/*
GET /products
- active products only, newest first
- page/limit optional, category + search filters
*/
func GetProducts(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		routeLog(route).Debug("hit",
			zap.String("page", c.Query("page")),
			zap.String("limit", c.Query("limit")),
			zap.String("category", c.Query("category")),
			zap.String("search", c.Query("search")),
		)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		category, ok := optionalObjectID(c, route, "category")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := products.List(ctx, service.ProductQuery{
			Category: category,
			Search:   strings.TrimSpace(c.Query("search")),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": result.Products,
			"pagination": gin.H{
				"page":  result.Page,
				"limit": result.Limit,
				"total": result.Total,
			},
		})
	}
}

// GetProduct returns one product with its cached averageRating and
// reviewCount.
func GetProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.Get(ctx, id)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
