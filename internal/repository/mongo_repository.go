package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	pendingOrdersCollection = "pending_orders"
	ordersCollection        = "orders"
	productsCollection      = "products"
)

type mongoRepository struct {
	client   *mongo.Client
	pending  *mongo.Collection
	orders   *mongo.Collection
	products *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) OrderRepository {
	return &mongoRepository{
		client:   db.Client(),
		pending:  db.Collection(pendingOrdersCollection),
		orders:   db.Collection(ordersCollection),
		products: db.Collection(productsCollection),
	}
}

// EnsureIndexes bootstraps the Mongo indexes when the repository is backed by
// Mongo; other implementations (test doubles) need none.
func EnsureIndexes(ctx context.Context, repo OrderRepository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}

// CreateIndexes sets up the unique tran_id index on orders. That index is the
// backstop for idempotent settlement: two racing settlers can both pass the
// pending-order lookup, but only one insert succeeds.
func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tran_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create orders.tran_id index: %w", err)
	}

	_, err = m.pending.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create pending_orders.created_at index: %w", err)
	}

	return nil
}

func (m *mongoRepository) CreatePendingOrder(ctx context.Context, pending *domain.PendingOrder) error {
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now()
	}

	_, err := m.pending.InsertOne(ctx, pending)
	if err != nil {
		return fmt.Errorf("failed to create pending order: %w", err)
	}
	return nil
}

func (m *mongoRepository) GetPendingOrder(ctx context.Context, tranID string) (*domain.PendingOrder, error) {
	var pending domain.PendingOrder

	filter := bson.M{"_id": tranID}
	err := m.pending.FindOne(ctx, filter).Decode(&pending)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPendingOrderNotFound
		}
		return nil, fmt.Errorf("failed to get pending order: %w", err)
	}

	return &pending, nil
}

func (m *mongoRepository) DeletePendingOrder(ctx context.Context, tranID string) error {
	res, err := m.pending.DeleteOne(ctx, bson.M{"_id": tranID})
	if err != nil {
		return fmt.Errorf("failed to delete pending order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrPendingOrderNotFound
	}
	return nil
}

func (m *mongoRepository) DeleteStalePendingOrders(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := m.pending.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale pending orders: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *mongoRepository) SettleOrder(ctx context.Context, order *domain.Order) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, e := m.orders.InsertOne(sc, order); e != nil {
			if mongo.IsDuplicateKeyError(e) {
				return nil, ErrDuplicateTranID
			}
			return nil, fmt.Errorf("insert order: %w", e)
		}

		for _, line := range order.Items {
			res, e := m.products.UpdateOne(sc,
				bson.M{"_id": line.ProductID},
				bson.M{"$inc": bson.M{"inventory.stock": -line.Quantity}})
			if e != nil {
				return nil, fmt.Errorf("decrement stock for product %s: %w", line.ProductID, e)
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrProductNotFound)
			}
		}

		res, e := m.pending.DeleteOne(sc, bson.M{"_id": order.TranID})
		if e != nil {
			return nil, fmt.Errorf("delete pending order: %w", e)
		}
		if res.DeletedCount == 0 {
			// The pending order vanished between lookup and transaction;
			// whoever removed it owns the settlement.
			return nil, ErrDuplicateTranID
		}

		return nil, nil
	})

	return err
}

func (m *mongoRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.findOrder(ctx, bson.M{"_id": id})
}

func (m *mongoRepository) GetOrderByTranID(ctx context.Context, tranID string) (*domain.Order, error) {
	return m.findOrder(ctx, bson.M{"tran_id": tranID})
}

func (m *mongoRepository) findOrder(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order

	err := m.orders.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (m *mongoRepository) AppendRefundNote(ctx context.Context, orderID string, note domain.RefundNote) error {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	res, err := m.orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{
			"$push": bson.M{"refund_notes": note},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to append refund note: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
