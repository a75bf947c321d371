package patient

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const patientsCollection = "patients"

// MongoRepository keeps one document per patient with visits embedded.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(patientsCollection)}
}

// EnsureIndexes creates the unique form number index and the lookup indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "formNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("formNumber_unique"),
		},
		{
			Keys:    bson.D{{Key: "visits.formNumber", Value: 1}},
			Options: options.Index().SetName("visits_formNumber"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, p *Patient) error {
	if p.Revision == 0 {
		p.Revision = 1
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateFormNumber
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByFormNumber(ctx context.Context, formNumber string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"formNumber": formNumber})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Patient, error) {
	var p Patient
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context, limit, offset int) ([]Patient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit)).SetSkip(int64(offset))
	}

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}

	patients := []Patient{}
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

func (r *MongoRepository) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return int(n), nil
}

func (r *MongoRepository) VisitFormNumberExists(ctx context.Context, formNumber string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"visits.formNumber": formNumber}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check visit form number: %w", err)
	}
	return n > 0, nil
}

func (r *MongoRepository) Save(ctx context.Context, p *Patient) error {
	expected := p.Revision
	p.Revision = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID, "revision": expected}, p)
	if err != nil {
		p.Revision = expected
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateFormNumber
		}
		return fmt.Errorf("failed to replace patient: %w", err)
	}
	if res.MatchedCount == 0 {
		p.Revision = expected
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": p.ID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("failed to check patient: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrRevisionConflict
	}
	return nil
}
