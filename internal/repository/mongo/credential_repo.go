package mongo

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const credentialCollectionName = "credentials"

// mongoCredentialRepository implements repository.CredentialRepository using MongoDB.
type mongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates a credential store over db.
func NewMongoCredentialRepository(db *mongo.Database) repository.CredentialRepository {
	return &mongoCredentialRepository{
		collection: db.Collection(credentialCollectionName),
	}
}

// Create inserts a new credential. The unique email index turns a second
// registration into ErrDuplicateKey.
func (r *mongoCredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" || cred.Email == "" || cred.PasswordHash == "" {
		return errors.New("credential id, email, and password hash are required")
	}

	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, cred); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// GetByEmail retrieves a credential by email address.
func (r *mongoCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID retrieves a credential by identity id.
func (r *mongoCredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoCredentialRepository) findOne(ctx context.Context, filter bson.M) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.collection.FindOne(ctx, filter).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}
