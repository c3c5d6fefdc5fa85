package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/modtrack/amr-api/internal/models"
)

// ModuleRepository manages persistence for modules and their variants.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs a ModuleRepository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// ModuleSnapshotFilter holds the module-level predicates that are pushed
// down to SQL. Variant and derived-field predicates are applied by the
// query pipeline after the fetch.
type ModuleSnapshotFilter struct {
	Areas       []string
	Locations   []string
	TitleSearch string
}

// List returns modules matching the module-level filters ordered by title,
// each with its variants attached.
func (r *ModuleRepository) List(ctx context.Context, filter ModuleSnapshotFilter) ([]models.Module, error) {
	query := `SELECT id, title, area, location, partnership, lead_id, created_at, updated_at FROM modules WHERE 1=1`
	args := []interface{}{}

	if len(filter.Areas) > 0 {
		query += ` AND area IN (?)`
		args = append(args, filter.Areas)
	}
	if len(filter.Locations) > 0 {
		query += ` AND location IN (?)`
		args = append(args, filter.Locations)
	}
	if filter.TitleSearch != "" {
		query += ` AND LOWER(title) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.TitleSearch)+"%")
	}
	query += ` ORDER BY title ASC`

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build module query: %w", err)
	}
	expanded = r.db.Rebind(expanded)

	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, expanded, expandedArgs...); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if len(modules) == 0 {
		return modules, nil
	}

	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	variants, err := r.variantsByModule(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range modules {
		modules[i].Variants = variants[modules[i].ID]
	}
	return modules, nil
}

// FindByID fetches a module with its variants.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	const query = `SELECT id, title, area, location, partnership, lead_id, created_at, updated_at FROM modules WHERE id = $1`
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get module: %w", err)
	}
	variants, err := r.variantsByModule(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	module.Variants = variants[id]
	return &module, nil
}

// FindByVariantCode resolves a module through one of its variant codes.
func (r *ModuleRepository) FindByVariantCode(ctx context.Context, code string) (*models.Module, error) {
	const query = `SELECT module_id FROM module_variants WHERE code = $1 LIMIT 1`
	var moduleID string
	if err := r.db.GetContext(ctx, &moduleID, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve variant code: %w", err)
	}
	return r.FindByID(ctx, moduleID)
}

// Create inserts a module and its variants within a transaction.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create module: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO modules (id, title, area, location, partnership, lead_id, created_at, updated_at)
        VALUES (:id, :title, :area, :location, :partnership, :lead_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	for i := range module.Variants {
		v := &module.Variants[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ModuleID = module.ID
		const vq = `INSERT INTO module_variants (id, module_id, code, level, period, lead_id)
            VALUES (:id, :module_id, :code, :level, :period, :lead_id)`
		if _, err = tx.NamedExecContext(ctx, vq, v); err != nil {
			return fmt.Errorf("create module variant: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create module: %w", err)
	}
	return nil
}

func (r *ModuleRepository) variantsByModule(ctx context.Context, moduleIDs []string) (map[string][]models.Variant, error) {
	query, args, err := sqlx.In(`SELECT id, module_id, code, level, period, lead_id FROM module_variants WHERE module_id IN (?) ORDER BY code ASC`, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("build variant query: %w", err)
	}
	query = r.db.Rebind(query)

	var variants []models.Variant
	if err := r.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return nil, fmt.Errorf("list module variants: %w", err)
	}
	grouped := make(map[string][]models.Variant, len(moduleIDs))
	for _, v := range variants {
		grouped[v.ModuleID] = append(grouped[v.ModuleID], v)
	}
	return grouped, nil
}
