package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// DefaultID is the user guaranteed to exist after the startup seed.
const DefaultID = "user-1"

// DefaultName is used when a user is created without a display name.
const DefaultName = "Guest"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrNegativePoints is returned when a user would be created with a
	// negative balance.
	ErrNegativePoints = errors.New("points must not be negative")
)

// User is a customer profile with a loyalty points balance.
type User struct {
	ID        string
	Name      string
	Points    int64
	Avatar    *string
	CreatedAt time.Time
}

// New builds a user with a generated id. A blank name falls back to
// DefaultName.
func New(name string, points int64, avatar *string) (*User, error) {
	if points < 0 {
		return nil, ErrNegativePoints
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return &User{
		ID:     uuid.New().String(),
		Name:   name,
		Points: points,
		Avatar: avatar,
	}, nil
}

// Patch is a partial profile update. Points are deliberately absent: the
// balance only moves through orders.
type Patch struct {
	Name *string
	// Avatar is applied when SetAvatar is true; a nil Avatar clears it.
	Avatar    *string
	SetAvatar bool
}

// Repository defines persistence operations for users.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, id string, patch Patch) (*User, error)
}
