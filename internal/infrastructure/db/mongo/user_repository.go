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

const collectionUsers = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoResult struct {
	RecordID   string    `bson:"record_id,omitempty"`
	Result     string    `bson:"result"`
	Confidence float64   `bson:"confidence"`
	Source     string    `bson:"source,omitempty"`
	Timestamp  time.Time `bson:"timestamp"`
}

type mongoUser struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	Password        string             `bson:"password"`
	Role            string             `bson:"role"`
	Age             int                `bson:"age"`
	Gender          string             `bson:"gender"`
	MedicalHistory  []string           `bson:"medical_history,omitempty"`
	Specialization  string             `bson:"specialization,omitempty"`
	Contact         string             `bson:"contact,omitempty"`
	ProfileImage    string             `bson:"profile_image,omitempty"`
	ProfileImageRef string             `bson:"profile_image_ref,omitempty"`
	LatestECGResult string             `bson:"latest_ecg_result,omitempty"`
	ECGResults      []mongoResult      `bson:"ecg_results,omitempty"`
	CreatedAt       int64              `bson:"created_at"`
	UpdatedAt       int64              `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Name:           user.Name,
		Email:          user.Email,
		Password:       user.PasswordHash,
		Role:           user.Role,
		Age:            user.Age,
		Gender:         user.Gender,
		MedicalHistory: user.MedicalHistory,
		Specialization: user.Specialization,
		Contact:        user.Contact,
		CreatedAt:      user.CreatedAt.Unix(),
		UpdatedAt:      user.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.update(ctx, email, bson.M{"$set": bson.M{
		"password":   passwordHash,
		"updated_at": time.Now().UTC().Unix(),
	}})
}

func (r *UserRepository) SetProfileImage(ctx context.Context, email, inline, ref string) error {
	return r.update(ctx, email, bson.M{"$set": bson.M{
		"profile_image":     inline,
		"profile_image_ref": ref,
		"updated_at":        time.Now().UTC().Unix(),
	}})
}

func (r *UserRepository) PushResult(ctx context.Context, email string, result domain.ClassificationResult) error {
	return r.update(ctx, email, bson.M{
		"$push": bson.M{"ecg_results": mongoResult{
			RecordID:   result.RecordID,
			Result:     result.Result,
			Confidence: result.Confidence,
			Source:     result.Source,
			Timestamp:  result.Timestamp,
		}},
		"$set": bson.M{"latest_ecg_result": result.Result},
	})
}

// ListByRole omits credentials and the classification history.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"password": 0, "ecg_results": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cur, err := r.coll.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	users := []*domain.User{}
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	return users, cur.Err()
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return err
}

func (r *UserRepository) update(ctx context.Context, email string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (mu mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:              mu.ID.Hex(),
		Name:            mu.Name,
		Email:           mu.Email,
		PasswordHash:    mu.Password,
		Role:            mu.Role,
		Age:             mu.Age,
		Gender:          mu.Gender,
		MedicalHistory:  mu.MedicalHistory,
		Specialization:  mu.Specialization,
		Contact:         mu.Contact,
		ProfileImage:    mu.ProfileImage,
		ProfileImageRef: mu.ProfileImageRef,
		LatestECGResult: mu.LatestECGResult,
		CreatedAt:       unixToTime(mu.CreatedAt),
		UpdatedAt:       unixToTime(mu.UpdatedAt),
	}
	for _, r := range mu.ECGResults {
		u.ECGResults = append(u.ECGResults, domain.ClassificationResult{
			RecordID:   r.RecordID,
			Result:     r.Result,
			Confidence: r.Confidence,
			Source:     r.Source,
			Timestamp:  r.Timestamp,
		})
	}
	return u
}
