package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

// defaultMongoDatabase is used when neither the config nor the URI names a database.
const defaultMongoDatabase = "test"

const mongoDisconnectTimeout = 5 * time.Second

// mongoUser is the stored document layout. It stays compatible with
// collections written by mongoose models (the "__v" version key).
type mongoUser struct {
	ID        bson.ObjectID `bson:"_id"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
	Version   int32         `bson:"__v"`
}

func newMongoUser(user *domain.User) mongoUser {
	return mongoUser{
		ID:        bson.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (d mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt.Unix(),
	}
}

// MongoUserRepository implements Repository on a MongoDB collection.
type MongoUserRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        logging.Logger

	uniqueEmail bool
	emailIndex  ensureOnce
	connectErr  error
}

var _ Repository = (*MongoUserRepository)(nil)

// NewMongoUserRepository creates a client for cfg.URI and binds the users collection.
//
// The driver connects lazily: an unreachable server at startup is logged,
// reported by ConnectErr and does not fail construction; operations fail until
// the server is reachable. When cfg.UniqueEmail is set a unique index on email
// is ensured before the first write, retrying until it succeeds.
func NewMongoUserRepository(ctx context.Context, cfg DirectoryConfig) (*MongoUserRepository, error) {
	dbName, err := mongoDatabaseName(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}

	log := logging.GetLogger("repo.user.mongo_user_repository").With(
		logging.Group("db", "database", dbName, "collection", cfg.Collection),
	)

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	repo := &MongoUserRepository{
		client:      client,
		collection:  client.Database(dbName).Collection(cfg.Collection),
		log:         log,
		uniqueEmail: cfg.UniqueEmail,
	}

	checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(checkCtx, readpref.Primary()); err != nil {
		repo.connectErr = fmt.Errorf("ping: %w", err)
		log.ErrorContext(ctx, "ping failed, continuing without connection", "error", err)

		return repo, nil
	}

	if err := repo.ensureEmailIndex(checkCtx); err != nil {
		log.ErrorContext(ctx, "ensure unique email index failed, retrying on first write", "error", err)
	}

	log.DebugContext(ctx, "mongo user directory opened", "uniqueEmail", cfg.UniqueEmail)

	return repo, nil
}

// ConnectErr returns the startup connectivity failure, or nil when the server
// answered the startup ping.
func (r *MongoUserRepository) ConnectErr() error {
	return r.connectErr
}

func mongoDatabaseName(cfg DirectoryConfig) (string, error) {
	if cfg.Database != "" {
		return cfg.Database, nil
	}

	cs, err := connstring.Parse(cfg.URI)
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	if cs.Database != "" {
		return cs.Database, nil
	}

	return defaultMongoDatabase, nil
}

// ensureEmailIndex creates the unique email index once when uniqueness is
// configured. A failed attempt is retried on the next call.
func (r *MongoUserRepository) ensureEmailIndex(ctx context.Context) error {
	if !r.uniqueEmail {
		return nil
	}

	return r.emailIndex.Do(ctx, func(ctx context.Context) error {
		name, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		})
		if err != nil {
			return fmt.Errorf("create index: %w", err)
		}

		r.log.DebugContext(ctx, "unique email index ensured", "index", name)

		return nil
	})
}

// FindUserByEmail implements Repository.FindUserByEmail.
func (r *MongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	var doc mongoUser

	err := r.collection.FindOne(ctx,
		bson.D{{Key: "email", Value: email}},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, false, fmt.Errorf("find user: %w", err)
	}

	return doc.toDomain(), true, nil
}

// CreateUser implements Repository.CreateUser.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if err := r.ensureEmailIndex(ctx); err != nil {
		return fmt.Errorf("ensure email index: %w", err)
	}

	doc := newMongoUser(user)

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt.Unix()

	return nil
}

// CreateUserIfAbsent implements Repository.CreateUserIfAbsent with a single
// upserting findOneAndUpdate that only sets fields on insert. The pre-image
// tells whether the document existed.
func (r *MongoUserRepository) CreateUserIfAbsent(
	ctx context.Context,
	user *domain.User,
) (*domain.User, bool, error) {
	if err := r.ensureEmailIndex(ctx); err != nil {
		return nil, false, fmt.Errorf("ensure email index: %w", err)
	}

	doc := newMongoUser(user)

	var existing mongoUser

	err := r.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "email", Value: user.Email}},
		bson.D{{Key: "$setOnInsert", Value: doc}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.Before),
	).Decode(&existing)

	switch {
	case err == nil:
		return existing.toDomain(), false, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return doc.toDomain(), true, nil
	case mongo.IsDuplicateKeyError(err):
		// a concurrent upsert inserted the same email first
		found, _, err := r.FindUserByEmail(ctx, user.Email)
		if err != nil {
			return nil, false, fmt.Errorf("find concurrently created user: %w", err)
		}

		return found, false, nil
	default:
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
}

// Close implements Repository.Close by disconnecting the client.
func (r *MongoUserRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	return nil
}

// ensureOnce runs a function until it succeeds once. Concurrent callers wait
// for the running attempt.
type ensureOnce struct {
	m    sync.Mutex
	done bool
}

func (o *ensureOnce) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	o.m.Lock()
	defer o.m.Unlock()

	if o.done {
		return nil
	}

	if err := fn(ctx); err != nil {
		return err
	}

	o.done = true

	return nil
}
