package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
)

// VerificationTokenRepository stores at most one outstanding token per user
// for a single purpose.
type VerificationTokenRepository interface {
	// PutToken stores token, replacing any token the user already has.
	PutToken(ctx context.Context, token *model.VerificationToken) (*model.VerificationToken, error)

	// GetToken returns the user's outstanding token or mongo.ErrNoDocuments.
	GetToken(ctx context.Context, userID string) (*model.VerificationToken, error)

	// DeleteToken removes the user's token. A missing token is not an error.
	DeleteToken(ctx context.Context, userID string) error

	// ConsumeToken deletes exactly the token with the given id and reports
	// whether it was still present.
	ConsumeToken(ctx context.Context, tokenID bson.ObjectID) (bool, error)
}

var ErrTokenReplaceConflict = errors.New("verification token kept changing while being replaced")

var tokenCollections = map[model.Purpose]string{
	model.PurposeEmailVerification: "user_verifications",
	model.PurposePasswordReset:     "password_resets",
	model.PurposeEmailChange:       "email_changes",
}

const maxPutAttempts = 4

type verificationTokenMongoRepository struct {
	db         *mongo.Database
	purpose    model.Purpose
	collection string
}

// NewVerificationTokenMongoRepository creates a MongoDB repository for the
// tokens of one purpose. A positive retention adds a TTL index that purges
// tokens that long after they expired.
func NewVerificationTokenMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	purpose model.Purpose,
	retention time.Duration,
) VerificationTokenRepository {
	name, ok := tokenCollections[purpose]
	if !ok {
		logger.Fatal().Str("purpose", string(purpose)).Msg("unknown verification token purpose")
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)), // TTL index
		})
	}

	_, err := db.Collection(name).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Str("collection", name).Msg("failed to create verification token indexes")
	}

	return &verificationTokenMongoRepository{
		db:         db,
		purpose:    purpose,
		collection: name,
	}
}

func (r *verificationTokenMongoRepository) PutToken(
	ctx context.Context,
	token *model.VerificationToken,
) (*model.VerificationToken, error) {
	token.Purpose = r.purpose
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	collection := r.db.Collection(r.collection)

	// A concurrent writer may insert between our delete and insert; the unique
	// user_id index turns that into a duplicate key error and we try again.
	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		if _, err := collection.DeleteMany(ctx, bson.M{"user_id": token.UserID}); err != nil {
			return nil, err
		}

		token.ID = bson.NilObjectID

		result, err := collection.InsertOne(ctx, token)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		objectID, ok := result.InsertedID.(bson.ObjectID)
		if !ok {
			return nil, errors.New("failed to convert inserted ID to ObjectID")
		}
		token.ID = objectID

		return token, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrTokenReplaceConflict, token.UserID.Hex())
}

func (r *verificationTokenMongoRepository) GetToken(
	ctx context.Context,
	userID string,
) (*model.VerificationToken, error) {
	objectID, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}

	var token model.VerificationToken
	err = r.db.Collection(r.collection).FindOne(ctx, bson.M{"user_id": objectID}).Decode(&token)
	if err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *verificationTokenMongoRepository) DeleteToken(ctx context.Context, userID string) error {
	objectID, err := parseObjectID(userID)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(r.collection).DeleteMany(ctx, bson.M{"user_id": objectID})
	return err
}

func (r *verificationTokenMongoRepository) ConsumeToken(ctx context.Context, tokenID bson.ObjectID) (bool, error) {
	result, err := r.db.Collection(r.collection).DeleteOne(ctx, bson.M{"_id": tokenID})
	if err != nil {
		return false, err
	}

	return result.DeletedCount == 1, nil
}
