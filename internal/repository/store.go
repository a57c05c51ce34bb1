package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/portalapi/portal-api/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository handles user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// ContactRepository handles contact message persistence operations.
type ContactRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	List(ctx context.Context, opts model.ContactListOptions) ([]model.ContactMessage, error)
}

// Store is a live handle to the backing database.
type Store interface {
	Users() UserRepository
	Contacts() ContactRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options configures how a Store connects to its database.
type Options struct {
	DSN string

	// ServerSelectionTimeout bounds the initial reachability check.
	ServerSelectionTimeout time.Duration
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration

	MaxPoolSize int
	MinPoolSize int
	MaxIdleTime time.Duration

	// Migrate applies pending schema migrations after connecting (SQL backends only).
	Migrate bool
}

// Open connects to the database named by opts.DSN. mongodb:// and mongodb+srv:// DSNs
// select the MongoDB backend; everything else is handled by the SQL backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	if isMongoDSN(opts.DSN) {
		store, err := OpenMongo(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := OpenSQL(ctx, opts)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func isMongoDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://")
}
