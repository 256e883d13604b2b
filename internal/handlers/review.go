package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"
)

type createReviewRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	OrderID   string   `json:"orderId" binding:"required"`
	Rating    int      `json:"rating" binding:"required"`
	Title     string   `json:"title" binding:"required"`
	Comment   string   `json:"comment" binding:"required"`
	Images    []string `json:"images"`
}

/* =========================
   CREATE REVIEW
========================= */

func CreateReview(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /reviews"
		defer handlePanic(c, route)

		identity := middleware.IdentityFrom(c)
		if !identity.Authenticated() {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, ok := parseObjectID(c, route, "productId", req.ProductID)
		if !ok {
			return
		}
		orderID, ok := parseObjectID(c, route, "orderId", req.OrderID)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := reviews.SubmitReview(ctx, identity, service.SubmitReviewInput{
			ProductID: productID,
			OrderID:   orderID,
			Rating:    req.Rating,
			Title:     req.Title,
			Comment:   req.Comment,
			Images:    req.Images,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

/* =========================
   LIST REVIEWS
========================= */

func GetReviews(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews"
		defer handlePanic(c, route)

		productID, ok := optionalObjectID(c, route, "productId")
		if !ok {
			return
		}
		userID, ok := optionalObjectID(c, route, "userId")
		if !ok {
			return
		}
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := reviews.List(ctx, service.ReviewQuery{
			ProductID: productID,
			UserID:    userID,
			Status:    models.ReviewStatus(strings.TrimSpace(c.Query("status"))),
			Page:      page,
			Limit:     limit,
		})
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

/* =========================
   ELIGIBILITY
========================= */

func ReviewEligibility(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /reviews/eligibility"
		defer handlePanic(c, route)

		productID, ok := parseObjectID(c, route, "productId", c.Query("productId"))
		if !ok {
			return
		}
		orderID, ok := parseObjectID(c, route, "orderId", c.Query("orderId"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		eligibility, err := reviews.CanReview(ctx, middleware.IdentityFrom(c), productID, orderID)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, eligibility)
	}
}

/* =========================
   ADMIN RECOMPUTE
========================= */

func RecomputeRating(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products/:id/recompute-rating"
		defer handlePanic(c, route)

		id, ok := parseObjectID(c, route, "id", c.Param("id"))
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		summary, err := reviews.RecomputeForAdmin(ctx, middleware.IdentityFrom(c), id)
		if err != nil {
			respondServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"productId": id.Hex(),
			"summary":   summary,
		})
	}
}
