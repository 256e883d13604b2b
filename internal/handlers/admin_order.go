package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

func AdminListOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		productID, ok := optionalObjectID(c, route, "product")
		if !ok {
			return
		}
		userID, ok := optionalObjectID(c, route, "user")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := orders.List(ctx, middleware.IdentityFrom(c), service.OrderQuery{
			UserID:    userID,
			ProductID: productID,
			All:       true,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UpdateOrderStatus serves both PATCH /orders/:id and the admin API route.
func UpdateOrderStatus(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		var req service.UpdateStatusInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.UpdateStatus(ctx, middleware.IdentityFrom(c), id, req)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
