package database

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// ProductStore is the read side of the catalog plus the two writes the order
// and review flows need: pricing changes and the cached rating aggregate.
type ProductStore struct {
	coll *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{coll: db.Collection(productsCollection)}
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var raw bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		return nil, mapError(err)
	}
	product, err := normalizeProductDocument(raw)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *ProductStore) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := productQuery(filter)

	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Find(ctx, query, pageOptions(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) UpdatePricing(ctx context.Context, id primitive.ObjectID, pricing models.SaleUpdateResult) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var raw bson.M
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"price":     pricing.Price,
			"onSale":    pricing.OnSale,
			"salePrice": pricing.SalePrice,
			"updatedAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err != nil {
		return nil, mapError(err)
	}

	product, err := normalizeProductDocument(raw)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductStore) SetRating(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"averageRating": summary.AverageRating,
		"reviewCount":   summary.ReviewCount,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func productQuery(filter repository.ProductFilter) bson.M {
	query := bson.M{"isActive": bson.M{"$ne": false}}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
	return query
}

// normalizeProductDocument tolerates catalog documents written by older
// tooling: numeric fields stored with a different BSON number type and
// boolean flags stored as strings.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	for _, key := range []string{"onSale", "isActive"} {
		if val, ok := raw[key]; ok {
			if typed, isString := val.(string); isString {
				raw[key] = typed == "true"
			}
		}
	}
	if _, ok := raw["isActive"]; !ok {
		raw["isActive"] = true
	}

	for _, key := range []string{"stock", "reviewCount"} {
		raw[key] = toInt(raw[key])
	}
	for _, key := range []string{"price", "salePrice", "averageRating"} {
		raw[key] = toFloat(raw[key])
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.Decorate()
	return p, nil
}

func toInt(val interface{}) int {
	switch typed := val.(type) {
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case int:
		return typed
	default:
		return 0
	}
}

func toFloat(val interface{}) float64 {
	switch typed := val.(type) {
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case float64:
		return typed
	default:
		return 0
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
