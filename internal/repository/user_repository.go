package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/modtrack/amr-api/internal/models"
)

// UserRepository reads staff records. Users are created out of band by the
// import scripts, so there is no write path here.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID fetches a single user.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, first_name, last_name, title, email, phone, address, role, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// FindByIDs fetches the given users keyed by id. Missing ids are simply
// absent from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return map[string]models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, first_name, last_name, title, email, phone, address, role, created_at, updated_at FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	query = r.db.Rebind(query)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	result := make(map[string]models.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// List returns users matching a role and optional name substring.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	query := `SELECT id, first_name, last_name, title, email, phone, address, role, created_at, updated_at FROM users WHERE 1=1`
	args := []interface{}{}

	if filter.Role != nil {
		query += fmt.Sprintf(" AND role = $%d", len(args)+1)
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND LOWER(first_name || ' ' || last_name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query += " ORDER BY last_name ASC, first_name ASC"

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
