package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
)

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) repository.UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (email, password_hash, fullname, address, pincode, role, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		user.Email, user.Password, user.Fullname, user.Address, user.Pincode, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: email '%s' is already registered", repository.ErrDuplicateEntry, user.Email)
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, email, password_hash, fullname, address, pincode, role, created_at, updated_at
	           FROM users WHERE email = $1`
	err := querier(ctx, r.db).QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.Fullname, &user.Address, &user.Pincode,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByEmail: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, email, password_hash, fullname, address, pincode, role, created_at, updated_at
	           FROM users WHERE id = $1`
	err := querier(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Password, &user.Fullname, &user.Address, &user.Pincode,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByID: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) ListNonAdmin(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, email, fullname, address, pincode, role, created_at, updated_at
	           FROM users WHERE role <> $1 ORDER BY id`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.ListNonAdmin: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Fullname, &user.Address, &user.Pincode,
			&user.Role, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("UserRepository.ListNonAdmin (scanning row): %w", err)
		}
		user.CreatedAt = user.CreatedAt.In(time.UTC)
		user.UpdatedAt = user.UpdatedAt.In(time.UTC)
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("UserRepository.ListNonAdmin (rows error): %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) CountNonAdmin(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE role <> $1`
	if err := querier(ctx, r.db).QueryRowContext(ctx, query, domain.RoleAdmin).Scan(&count); err != nil {
		return 0, fmt.Errorf("UserRepository.CountNonAdmin: %w", err)
	}
	return count, nil
}
