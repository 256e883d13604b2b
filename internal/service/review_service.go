package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

const (
	defaultReviewLimit = 10
	maxReviewLimit     = 50
	driftBatch         = 100
	driftParallelism   = 4
	// driftLookback bounds the first rescan after startup; later sweeps
	// start from the previous sweep minus driftOverlap.
	driftLookback = 24 * time.Hour
	driftOverlap  = time.Minute
)

// DriftTracker remembers products whose cached rating could not be written
// back after a review was stored.
type DriftTracker interface {
	MarkDirty(ctx context.Context, productID primitive.ObjectID) error
	Drain(ctx context.Context, max int) ([]primitive.ObjectID, error)
}

type SubmitReviewInput struct {
	ProductID primitive.ObjectID `json:"productId" validate:"required"`
	OrderID   primitive.ObjectID `json:"orderId" validate:"required"`
	Rating    int                `json:"rating" validate:"min=1,max=5"`
	Title     string             `json:"title" validate:"required,max=100"`
	Comment   string             `json:"comment" validate:"required,max=1000"`
	Images    []string           `json:"images" validate:"max=10,dive,required"`
}

type ReviewResult struct {
	Review  *models.Review       `json:"review"`
	Summary models.RatingSummary `json:"summary"`
	// AggregateStale is set when the review was stored but the product's
	// cached rating could not be refreshed yet.
	AggregateStale bool `json:"aggregateStale,omitempty"`
}

type Eligibility struct {
	CanReview bool   `json:"canReview"`
	Reason    string `json:"reason,omitempty"`
}

type ReviewQuery struct {
	ProductID *primitive.ObjectID
	UserID    *primitive.ObjectID
	Status    models.ReviewStatus
	Page      int64
	Limit     int64
}

type ReviewPage struct {
	Reviews []models.Review `json:"reviews"`
	Total   int64           `json:"total"`
	Page    int64           `json:"page"`
	Limit   int64           `json:"limit"`
}

// ReviewService gates reviews on delivered orders and keeps each product's
// cached rating in line with its approved reviews.
type ReviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	tracker  DriftTracker
	events   notify.Publisher
	now      func() time.Time

	sweepMu sync.Mutex
	sweptAt time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	tracker DriftTracker,
	events notify.Publisher,
) *ReviewService {
	if events == nil {
		events = notify.Discard{}
	}
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		products: products,
		tracker:  tracker,
		events:   events,
		now:      time.Now,
	}
}

func reviewLog() *zap.Logger {
	return zap.L().With(zap.String("area", "review"))
}

// checkEligibility applies the four gate conditions in order and returns
// the first one that fails.
func (s *ReviewService) checkEligibility(ctx context.Context, actor models.Identity, productID, orderID primitive.ObjectID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return mapOrderErr(err)
	}
	if order.UserID != actor.UserID {
		return ErrNotOrderOwner
	}
	if order.Status != models.OrderStatusDelivered {
		return ErrOrderNotDelivered
	}
	if !order.ContainsProduct(productID) {
		return ErrProductNotInOrder
	}

	exists, err := s.reviews.Exists(ctx, actor.UserID, productID, orderID)
	if err != nil {
		return fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return ErrDuplicateReview
	}
	return nil
}

// CanReview reports whether the caller may review productID for orderID.
// A failed gate is not an error; the reason code says which one failed.
func (s *ReviewService) CanReview(ctx context.Context, actor models.Identity, productID, orderID primitive.ObjectID) (Eligibility, error) {
	if !actor.Authenticated() {
		return Eligibility{}, ErrAuthRequired
	}
	err := s.checkEligibility(ctx, actor, productID, orderID)
	if err == nil {
		return Eligibility{CanReview: true}, nil
	}
	if reason := IneligibilityReason(err); reason != "" {
		return Eligibility{Reason: reason}, nil
	}
	return Eligibility{}, err
}

// SubmitReview stores a verified, approved review and refreshes the
// product's rating. The duplicate check above is advisory; the unique
// (user, product, order) constraint in storage is what rejects a racing
// second submission.
func (s *ReviewService) SubmitReview(ctx context.Context, actor models.Identity, input SubmitReviewInput) (*ReviewResult, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, actor, input.ProductID, input.OrderID); err != nil {
		return nil, err
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}
	now := s.now().UTC()
	review := &models.Review{
		ProductID: input.ProductID,
		UserID:    actor.UserID,
		OrderID:   input.OrderID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		Images:    images,
		Verified:  true,
		Status:    models.ReviewStatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	follow := context.WithoutCancel(ctx)
	result := &ReviewResult{Review: review}
	summary, settled, err := s.recompute(follow, input.ProductID)
	switch {
	case err != nil:
		reviewLog().Warn("rating refresh failed, marking drift",
			zap.String("product", input.ProductID.Hex()),
			zap.Error(err),
		)
		s.markDirty(follow, input.ProductID)
		result.AggregateStale = true
	case !settled:
		s.markDirty(follow, input.ProductID)
		result.AggregateStale = true
	default:
		result.Summary = summary
	}

	reviewLog().Info("review created",
		zap.String("product", input.ProductID.Hex()),
		zap.String("order", input.OrderID.Hex()),
		zap.Int("rating", input.Rating),
	)
	s.events.Emit(notify.NewEvent(
		notify.EventReviewCreated,
		"New review",
		fmt.Sprintf("%d-star review: %s", review.Rating, review.Title),
		map[string]any{
			"reviewId":  review.ID.Hex(),
			"productId": review.ProductID.Hex(),
			"orderId":   review.OrderID.Hex(),
			"rating":    review.Rating,
		},
	))
	return result, nil
}

// RecomputeAggregate rewrites the product's averageRating and reviewCount
// from its approved reviews. It depends only on the stored reviews, so
// running it again gives the same result. When reviews change while the
// write is in flight the product is marked dirty for the next sweep.
func (s *ReviewService) RecomputeAggregate(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, error) {
	summary, settled, err := s.recompute(ctx, productID)
	if err != nil {
		return models.RatingSummary{}, err
	}
	if !settled {
		s.markDirty(context.WithoutCancel(ctx), productID)
	}
	return summary, nil
}

// recompute writes the summary of the approved reviews and then reads the
// stats again. settled is false when they moved in between: a concurrent
// recompute may have written the newer value first and been overwritten
// by this one.
func (s *ReviewService) recompute(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, bool, error) {
	summary, err := s.approvedSummary(ctx, productID)
	if err != nil {
		return models.RatingSummary{}, false, err
	}
	if err := s.products.SetRating(ctx, productID, summary); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.RatingSummary{}, false, ErrProductNotFound
		}
		return models.RatingSummary{}, false, fmt.Errorf("write rating: %w", err)
	}

	after, err := s.approvedSummary(ctx, productID)
	if err != nil {
		return summary, false, nil
	}
	if after != summary {
		reviewLog().Info("reviews changed during rating refresh",
			zap.String("product", productID.Hex()),
			zap.Int("written", summary.ReviewCount),
			zap.Int("current", after.ReviewCount),
		)
		return after, false, nil
	}
	return summary, true, nil
}

func (s *ReviewService) approvedSummary(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, error) {
	stats, err := s.reviews.ApprovedStats(ctx, productID)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("rating stats: %w", err)
	}
	return models.RatingSummary{
		AverageRating: roundRating(stats.Average),
		ReviewCount:   stats.Count,
	}, nil
}

// RecomputeForAdmin is the on-demand repair entry point.
func (s *ReviewService) RecomputeForAdmin(ctx context.Context, actor models.Identity, productID primitive.ObjectID) (models.RatingSummary, error) {
	if !actor.IsAdmin {
		return models.RatingSummary{}, ErrAdminRequired
	}
	return s.RecomputeAggregate(ctx, productID)
}

// ReconcileDrift repairs cached ratings that disagree with the approved
// reviews. It checks every product marked dirty plus every product with a
// review updated since the previous sweep, so a mark lost to a crash or a
// restart is still caught. It returns how many cached ratings it rewrote.
func (s *ReviewService) ReconcileDrift(ctx context.Context) (int, error) {
	started := s.now().UTC()

	ids, err := s.tracker.Drain(ctx, driftBatch)
	if err != nil {
		return 0, fmt.Errorf("drain drift set: %w", err)
	}
	recent, err := s.reviews.ReviewedSince(ctx, s.rescanFrom(started))
	if err != nil {
		for _, id := range ids {
			s.markDirty(context.WithoutCancel(ctx), id)
		}
		return 0, fmt.Errorf("recently reviewed products: %w", err)
	}
	ids = mergeIDs(ids, recent)

	var repaired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(driftParallelism)
	for _, id := range ids {
		g.Go(func() error {
			changed, err := s.repair(gctx, id)
			switch {
			case err == nil:
				if changed {
					repaired.Add(1)
				}
			case errors.Is(err, ErrProductNotFound):
				reviewLog().Info("dropping drift mark for missing product", zap.String("product", id.Hex()))
			default:
				reviewLog().Warn("drift repair failed", zap.String("product", id.Hex()), zap.Error(err))
				s.markDirty(context.WithoutCancel(gctx), id)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.sweepMu.Lock()
	s.sweptAt = started
	s.sweepMu.Unlock()
	return int(repaired.Load()), nil
}

func (s *ReviewService) rescanFrom(started time.Time) time.Time {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.sweptAt.IsZero() {
		return started.Add(-driftLookback)
	}
	return s.sweptAt.Add(-driftOverlap)
}

// repair rewrites the cached rating only when it differs from the approved
// reviews, and reports whether it did.
func (s *ReviewService) repair(ctx context.Context, productID primitive.ObjectID) (bool, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("load product: %w", err)
	}
	want, err := s.approvedSummary(ctx, productID)
	if err != nil {
		return false, err
	}
	if product.AverageRating == want.AverageRating && product.ReviewCount == want.ReviewCount {
		return false, nil
	}
	if _, err := s.RecomputeAggregate(ctx, productID); err != nil {
		return false, err
	}
	return true, nil
}

func mergeIDs(a, b []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(a)+len(b))
	out := make([]primitive.ObjectID, 0, len(a)+len(b))
	for _, list := range [][]primitive.ObjectID{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *ReviewService) markDirty(ctx context.Context, productID primitive.ObjectID) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.MarkDirty(ctx, productID); err != nil {
		reviewLog().Error("drift mark lost", zap.String("product", productID.Hex()), zap.Error(err))
	}
}

// List pages through reviews, approved only unless a status is given.
func (s *ReviewService) List(ctx context.Context, q ReviewQuery) (*ReviewPage, error) {
	status := q.Status
	if status == "" {
		status = models.ReviewStatusApproved
	}
	if !status.Valid() {
		return nil, invalidf("status %q is not a known review status", status)
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}

	reviews, total, err := s.reviews.Find(ctx, repository.ReviewFilter{
		ProductID: q.ProductID,
		UserID:    q.UserID,
		Status:    status,
	}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	return &ReviewPage{Reviews: reviews, Total: total, Page: page, Limit: limit}, nil
}

func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
