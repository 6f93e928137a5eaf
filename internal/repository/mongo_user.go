package repository

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/authflow/authflow-go/internal/model"
)

const (
	userCollection      = "users"
	mongoUpdateAttempts = 5
)

// ConnectMongo opens a client and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.In("mongo").Wrapf(err, "connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, oops.In("mongo").Wrapf(err, "ping")
	}
	return client, nil
}

// MongoUserRepository stores users in a MongoDB collection. Update uses the
// version field for optimistic concurrency.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository ensures the unique email index exists.
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (*MongoUserRepository, error) {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, oops.In("user_repository").Wrapf(err, "create user indexes")
	}

	return &MongoUserRepository{collection: collection}, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 0

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return oops.In("user_repository").With("operation", "Create").Wrap(err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "GetByID", bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "GetByEmail", bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, oops.In("user_repository").With("operation", op).Wrap(err)
	}
	return &user, nil
}

// Update re-reads and re-applies fn when another writer bumped the version
// in between. It gives up with ErrConcurrentUpdate after a few attempts.
func (r *MongoUserRepository) Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	var updated *model.User

	backoff := retry.WithMaxRetries(mongoUpdateAttempts, retry.NewExponential(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		version := user.Version
		if err := fn(user); err != nil {
			return err
		}
		user.ID = id
		user.Version = version + 1
		user.UpdatedAt = time.Now()

		res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateEmail
			}
			return oops.In("user_repository").With("operation", "Update").Wrap(err)
		}
		if res.MatchedCount == 0 {
			return retry.RetryableError(ErrConcurrentUpdate)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
