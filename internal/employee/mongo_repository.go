package employee

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const employeesCollection = "employees"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(employeesCollection)}
}

// EnsureIndexes creates the unique userType index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userType", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userType_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create employee indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, e *Employee) error {
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUserType
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByUserType(ctx context.Context, userType UserType) (*Employee, error) {
	return r.findOne(ctx, bson.M{"userType": userType})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Employee, error) {
	var e Employee
	if err := r.coll.FindOne(ctx, filter).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	return &e, nil
}
