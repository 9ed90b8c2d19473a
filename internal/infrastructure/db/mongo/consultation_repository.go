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
	"github.com/raiahtisham/ecg-health-iq/internal/core/ports"
)

const collectionConsultations = "consult_requests"

type ConsultationRepository struct {
	col *mongo.Collection
}

func NewConsultationRepository(db *mongo.Database) *ConsultationRepository {
	return &ConsultationRepository{col: db.Collection(collectionConsultations)}
}

type mongoConsultation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Age            int                `bson:"age"`
	Phone          string             `bson:"phone"`
	Email          string             `bson:"email"`
	DoctorEmail    string             `bson:"doctor_email"`
	Message        string             `bson:"message"`
	Signal         []float64          `bson:"ecg_signal"`
	Timestamp      time.Time          `bson:"timestamp"`
	DoctorReply    string             `bson:"doctor_reply"`
	RepliedAt      *time.Time         `bson:"replied_at,omitempty"`
	IdempotencyKey string             `bson:"idempotency_key,omitempty"`
}

func (r *ConsultationRepository) Create(ctx context.Context, c *domain.Consultation) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, mongoConsultation{
		Name:           c.PatientName,
		Age:            c.Age,
		Phone:          c.Phone,
		Email:          c.PatientEmail,
		DoctorEmail:    c.DoctorEmail,
		Message:        c.Message,
		Signal:         c.Signal,
		Timestamp:      c.Timestamp.UTC(),
		DoctorReply:    c.DoctorReply,
		IdempotencyKey: c.IdempotencyKey,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrRequestInFlight
		}
		return "", fmt.Errorf("insert consultation: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert consultation: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindByIdempotencyKey retrieves a consultation that was created with the given key.
func (r *ConsultationRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Consultation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoConsultation
	if err := r.col.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConsultationNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ConsultationRepository) List(ctx context.Context, filter ports.ConsultationFilter) ([]*domain.Consultation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.DoctorEmail != "" {
		query["doctor_email"] = filter.DoctorEmail
	}
	if filter.PatientEmail != "" {
		query["email"] = filter.PatientEmail
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.Consultation{}
	for cur.Next(ctx) {
		var doc mongoConsultation
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode consultation: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// SetReply updates the most recent matching consultation in one round trip and
// returns the document as it was before the update.
func (r *ConsultationRepository) SetReply(ctx context.Context, patientEmail, doctorEmail, reply string, at time.Time) (*domain.Consultation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"email": patientEmail}
	if doctorEmail != "" {
		filter["doctor_email"] = doctorEmail
	}
	update := bson.M{"$set": bson.M{"doctor_reply": reply, "replied_at": at.UTC()}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetReturnDocument(options.Before)

	var doc mongoConsultation
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("reply consultation: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ConsultationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrConsultationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrConsultationNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on consult_requests. The
// idempotency key index is sparse so documents without a key never collide.
func (r *ConsultationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctor_email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

func (doc mongoConsultation) toDomain() *domain.Consultation {
	return &domain.Consultation{
		ID:             doc.ID.Hex(),
		PatientName:    doc.Name,
		Age:            doc.Age,
		Phone:          doc.Phone,
		PatientEmail:   doc.Email,
		DoctorEmail:    doc.DoctorEmail,
		Message:        doc.Message,
		Signal:         doc.Signal,
		Timestamp:      doc.Timestamp,
		DoctorReply:    doc.DoctorReply,
		RepliedAt:      doc.RepliedAt,
		IdempotencyKey: doc.IdempotencyKey,
	}
}
