package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

type messageReadRequest struct {
	IsRead *bool `json:"isRead" binding:"required"`
}

func CreateMessage(messages *service.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /message"
		defer handlePanic(c, route)

		var req service.MessageInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		msg, err := messages.Create(ctx, req)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "id": msg.ID.Hex()})
	}
}

func AdminListMessages(messages *service.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/messages"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if page == 0 {
			page = 1
		}
		if limit == 0 {
			limit = 20
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := messages.List(ctx, middleware.IdentityFrom(c), page, limit)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func AdminMarkMessage(messages *service.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/messages/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}
		var req messageReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		msg, err := messages.MarkRead(ctx, middleware.IdentityFrom(c), id, *req.IsRead)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, msg)
	}
}

func AdminDeleteMessage(messages *service.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/messages/:id"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := messages.Delete(ctx, middleware.IdentityFrom(c), id); err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
	}
}
