package repository

import (
	"context"
	"errors"

	"user-registry/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no live record exists for the given id.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert or update would violate
	// the email uniqueness constraint. The store is the final arbiter of
	// uniqueness; callers must treat this as the canonical conflict signal.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Order is the sort direction for List.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// Filter holds typed equality predicates for List. A nil field means
// "no constraint". Free-form filters never reach the store.
type Filter struct {
	Name  *string
	Email *string
	Age   *int
}

// ListQuery is a bounded, store-safe query produced by the query translator.
type ListQuery struct {
	Filter  Filter
	Limit   int
	Offset  int
	OrderBy string // allow-listed column name
	Order   Order
}

// UserRepository defines the interface for user-related storage operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	// List returns one page of users plus the total count of records
	// matching the filter independent of pagination.
	List(ctx context.Context, q ListQuery) ([]*entity.User, int64, error)
}
