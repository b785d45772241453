package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motorly/backend/domain"
	"github.com/motorly/backend/repository"
)

const carColumns = `id, user_id, title, description, tags, images, created_at, updated_at`

type carRepository struct {
	pool *pgxpool.Pool
}

// NewCarRepository instantiates a Postgres-backed car repository.
func NewCarRepository(pool *pgxpool.Pool) repository.CarRepository {
	return &carRepository{pool: pool}
}

func (r *carRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	const query = `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)

	car, err := scanCar(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCarNotFound
		}
		return nil, err
	}
	return car, nil
}

func (r *carRepository) List(ctx context.Context, filter repository.CarFilter) ([]domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE user_id = $1`
	args := []interface{}{filter.UserID}

	if filter.Query != "" {
		query += ` AND (title ILIKE $2 OR description ILIKE $2 OR array_to_string(tags, ' ') ILIKE $2)`
		args = append(args, "%"+filter.Query+"%")
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, *car)
	}
	return cars, rows.Err()
}

func (r *carRepository) Create(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if car == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
		INSERT INTO cars (id, user_id, title, description, tags, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + carColumns

	row := r.pool.QueryRow(ctx, query,
		car.ID,
		car.UserID,
		car.Title,
		car.Description,
		car.Tags,
		car.Images,
	)
	return scanCar(row)
}

func (r *carRepository) Update(ctx context.Context, car *domain.Car) error {
	if car == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
		UPDATE cars
		SET title = $3,
			description = $4,
			tags = $5,
			images = $6,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		car.ID,
		car.UserID,
		car.Title,
		car.Description,
		car.Tags,
		car.Images,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCarNotFound
	}
	return nil
}

func (r *carRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCarNotFound
	}
	return nil
}

func scanCar(row pgx.Row) (*domain.Car, error) {
	var car domain.Car
	if err := row.Scan(
		&car.ID,
		&car.UserID,
		&car.Title,
		&car.Description,
		&car.Tags,
		&car.Images,
		&car.CreatedAt,
		&car.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &car, nil
}
