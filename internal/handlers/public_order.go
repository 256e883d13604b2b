package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Size     string `json:"size"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required,dive"`
	CustomerInfo    models.CustomerInfo      `json:"customerInfo"`
	SizeDescription string                   `json:"sizeDescription"`
	TotalAmount     *float64                 `json:"totalAmount" binding:"required"`
}

func (r createOrderRequest) toInput() (service.CreateOrderInput, error) {
	input := service.CreateOrderInput{
		CustomerInfo:    r.CustomerInfo,
		SizeDescription: r.SizeDescription,
		TotalAmount:     *r.TotalAmount,
		Items:           make([]service.OrderLineInput, 0, len(r.Items)),
	}
	for i, item := range r.Items {
		productID, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return service.CreateOrderInput{}, fmt.Errorf("items[%d].product is invalid", i)
		}
		input.Items = append(input.Items, service.OrderLineInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
	}
	return input, nil
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Create(ctx, middleware.IdentityFrom(c), input)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}

		zap.L().Info("order placed",
			zap.String("area", "order"),
			zap.String("route", route),
			zap.String("orderNumber", order.OrderNumber),
		)
		c.JSON(http.StatusCreated, gin.H{
			"success":     true,
			"orderNumber": order.OrderNumber,
			"orderId":     order.ID.Hex(),
		})
	}
}

/* =========================
   GET ORDERS
========================= */

// GetOrders lists the caller's orders. product narrows to orders containing
// that product; user is only honoured for the caller themself or an admin.
func GetOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
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
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := orders.Get(ctx, middleware.IdentityFrom(c), id)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
