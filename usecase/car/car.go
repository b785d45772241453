package car

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/repository"
)

type UseCase struct {
	cars   repository.CarRepository
	logger *zap.Logger
}

func New(cars repository.CarRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		cars:   cars,
		logger: logger,
	}
}

func (uc *UseCase) ListCars(ctx context.Context, filter repository.CarFilter) ([]domain.Car, error) {
	return uc.cars.List(ctx, filter)
}

// GetCar returns a car only if it belongs to the requesting user.
func (uc *UseCase) GetCar(ctx context.Context, userID, id string) (*domain.Car, error) {
	car, err := uc.cars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !car.OwnedBy(userID) {
		return nil, domain.ErrCarNotFound
	}
	return car, nil
}

func (uc *UseCase) CreateCar(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if err := validate(car); err != nil {
		return nil, err
	}
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	return uc.cars.Create(ctx, car)
}

func (uc *UseCase) UpdateCar(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if err := validate(car); err != nil {
		return nil, err
	}
	if err := uc.cars.Update(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (uc *UseCase) DeleteCar(ctx context.Context, userID, id string) error {
	car, err := uc.cars.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !car.OwnedBy(userID) {
		return domain.ErrCarNotFound
	}
	return uc.cars.Delete(ctx, id)
}

func validate(car *domain.Car) error {
	if car == nil || car.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if strings.TrimSpace(car.Title) == "" {
		return domain.NewError(domain.ErrCodeValidation, "title is required")
	}
	if len(car.Images) > domain.MaxCarImages {
		return domain.NewError(domain.ErrCodeValidation, "a car can have at most 10 images")
	}
	return nil
}
