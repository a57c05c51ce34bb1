package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/portalapi/portal-api/internal/model"
)

const defaultMongoDatabase = "portal"

// MongoStore is a Store backed by MongoDB.
type MongoStore struct {
	client   *mongo.Client
	users    *MongoUserRepository
	contacts *MongoContactRepository
}

// OpenMongo connects to MongoDB, waits for a primary within the server selection timeout and
// makes sure the unique email index exists.
func OpenMongo(ctx context.Context, opts Options) (*MongoStore, error) {
	dbName, err := mongoDatabaseName(opts.DSN)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(mongoClientOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx := ctx
	if opts.ServerSelectionTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ServerSelectionTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	store := &MongoStore{
		client:   client,
		users:    &MongoUserRepository{coll: db.Collection("users")},
		contacts: &MongoContactRepository{coll: db.Collection("contact_messages")},
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	return store, nil
}

func mongoClientOptions(opts Options) *options.ClientOptions {
	co := options.Client().ApplyURI(opts.DSN)
	if opts.ServerSelectionTimeout > 0 {
		co.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	if opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.SocketTimeout > 0 {
		co.SetTimeout(opts.SocketTimeout)
	}
	if opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(uint64(opts.MaxPoolSize))
	}
	if opts.MinPoolSize > 0 {
		co.SetMinPoolSize(uint64(opts.MinPoolSize))
	}
	if opts.MaxIdleTime > 0 {
		co.SetMaxConnIdleTime(opts.MaxIdleTime)
	}
	return co.SetRetryWrites(true)
}

func mongoDatabaseName(dsn string) (string, error) {
	cs, err := connstring.ParseAndValidate(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mongo dsn: %w", err)
	}
	if cs.Database == "" {
		return defaultMongoDatabase, nil
	}
	return cs.Database, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_users_email"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = s.contacts.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create contact_messages index: %w", err)
	}
	return nil
}

// Users returns the user repository.
func (s *MongoStore) Users() UserRepository { return s.users }

// Contacts returns the contact message repository.
func (s *MongoStore) Contacts() ContactRepository { return s.contacts }

// Ping checks that a primary is still reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client and drains its pool.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MongoUserRepository handles user persistence on MongoDB.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// Create inserts a new user document.
func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// GetByID retrieves a user by their ID.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// Update persists the user's name and email.
func (r *MongoUserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: user.Name},
		{Key: "email", Value: user.Email},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	user := &model.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// MongoContactRepository handles contact message persistence on MongoDB.
type MongoContactRepository struct {
	coll *mongo.Collection
}

// Create stores a contact message as submitted.
func (r *MongoContactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// List retrieves contact messages, newest first.
func (r *MongoContactRepository) List(ctx context.Context, opts model.ContactListOptions) ([]model.ContactMessage, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))

	cursor, err := r.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, err
	}

	messages := []model.ContactMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
