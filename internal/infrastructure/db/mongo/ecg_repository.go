package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raiahtisham/ecg-health-iq/internal/core/domain"
)

const collectionECGRecords = "ecg_records"

// ECGRepository implements ports.ECGRepository using MongoDB.
type ECGRepository struct {
	col *mongo.Collection
}

func NewECGRepository(db *mongo.Database) *ECGRepository {
	return &ECGRepository{col: db.Collection(collectionECGRecords)}
}

type mongoRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Signal         []float64          `bson:"ecg_signal"`
	Timestamp      time.Time          `bson:"timestamp"`
	Source         string             `bson:"source,omitempty"`
	TestResult     string             `bson:"test_result,omitempty"`
	Confidence     float64            `bson:"confidence,omitempty"`
	ClassifiedAt   *time.Time         `bson:"classified_at,omitempty"`
	HeartRate      *float64           `bson:"heart_rate,omitempty"`
	DoctorResponse string             `bson:"doctor_response,omitempty"`
}

func (r *ECGRepository) Insert(ctx context.Context, rec *domain.ECGRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoRecord{
		Email:          rec.Email,
		Signal:         rec.Signal,
		Timestamp:      rec.Timestamp.UTC(),
		Source:         string(rec.Source),
		TestResult:     rec.TestResult,
		Confidence:     rec.Confidence,
		ClassifiedAt:   rec.ClassifiedAt,
		HeartRate:      rec.HeartRate,
		DoctorResponse: rec.DoctorResponse,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert ecg record: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert ecg record: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *ECGRepository) FindByID(ctx context.Context, id string) (*domain.ECGRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

// ListByOwner returns records in insertion order. ObjectIDs grow
// monotonically per process, so sorting on _id preserves it.
func (r *ECGRepository) ListByOwner(ctx context.Context, email string) ([]*domain.ECGRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"email": email}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list ecg records: %w", err)
	}
	defer cur.Close(ctx)

	records := []*domain.ECGRecord{}
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode ecg record: %w", err)
		}
		records = append(records, doc.toDomain())
	}
	return records, cur.Err()
}

func (r *ECGRepository) SetClassification(ctx context.Context, id, email string, c domain.Classification, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}
	return r.update(ctx, bson.M{"_id": oid, "email": email}, bson.M{"$set": bson.M{
		"test_result":   c.Label,
		"confidence":    c.Confidence,
		"classified_at": at.UTC(),
	}})
}

func (r *ECGRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete ecg record: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *ECGRepository) ExistsWithSignal(ctx context.Context, email string, signal []float64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"email": email, "ecg_signal": signal}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count ecg records: %w", err)
	}
	return n > 0, nil
}

func (r *ECGRepository) Latest(ctx context.Context, email string) (*domain.ECGRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	return r.findOne(ctx, bson.M{"email": email}, opts)
}

func (r *ECGRepository) SetDoctorResponse(ctx context.Context, id, response string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}
	return r.update(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"doctor_response": response}})
}

// EnsureIndexes creates the owner and owner/recency indexes.
func (r *ECGRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *ECGRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.ECGRecord, error) {
	var doc mongoRecord
	var err error
	if opts != nil {
		err = r.col.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.col.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find ecg record: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ECGRepository) update(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update ecg record: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (doc mongoRecord) toDomain() *domain.ECGRecord {
	signal := doc.Signal
	if signal == nil {
		signal = []float64{}
	}
	return &domain.ECGRecord{
		ID:             doc.ID.Hex(),
		Email:          doc.Email,
		Signal:         signal,
		Timestamp:      doc.Timestamp,
		Source:         domain.RecordSource(doc.Source),
		TestResult:     doc.TestResult,
		Confidence:     doc.Confidence,
		ClassifiedAt:   doc.ClassifiedAt,
		HeartRate:      doc.HeartRate,
		DoctorResponse: doc.DoctorResponse,
	}
}
