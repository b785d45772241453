package repository

import (
	"context"

	"github.com/motorly/backend/domain"
)

// CarFilter scopes car listings to an owner; Query, when set, narrows the
// result to cars whose title, description or tags contain the substring.
type CarFilter struct {
	UserID string
	Query  string
	Limit  int
	Offset int
}

type CarRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Car, error)
	List(ctx context.Context, filter CarFilter) ([]domain.Car, error)
	Create(ctx context.Context, car *domain.Car) (*domain.Car, error)
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id string) error
}
