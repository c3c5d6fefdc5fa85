package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

type userLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// VariantDetail is a variant with its lead resolved for display.
type VariantDetail struct {
	models.Variant
	LeadName string `json:"lead_name"`
}

// ModuleDetail is a module with display-ready variants.
type ModuleDetail struct {
	models.Module
	VariantDetails []VariantDetail `json:"variant_details"`
}

// ModuleService serves module detail reads and the lead dropdown source.
type ModuleService struct {
	modules moduleFinder
	leads   leadResolver
	users   userLister
	logger  *zap.Logger
}

// NewModuleService constructs a ModuleService.
func NewModuleService(modules moduleFinder, leads leadResolver, users userLister, logger *zap.Logger) *ModuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{modules: modules, leads: leads, users: users, logger: logger}
}

// Get fetches a module with variants and resolved lead names.
func (s *ModuleService) Get(ctx context.Context, id string) (*ModuleDetail, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "module id is required")
	}
	module, err := s.modules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}

	ids := make([]string, 0, len(module.Variants))
	for _, variant := range module.Variants {
		if variant.LeadID != nil {
			ids = append(ids, *variant.LeadID)
		}
	}
	leads, err := s.leads.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lead lookup failed")
	}

	detail := &ModuleDetail{Module: *module}
	for _, variant := range module.Variants {
		name := leadNameMissing
		if variant.LeadID != nil {
			if lead, ok := leads[*variant.LeadID]; ok {
				name = lead.FullName()
			}
		}
		detail.VariantDetails = append(detail.VariantDetails, VariantDetail{Variant: variant, LeadName: name})
	}
	return detail, nil
}

// ListLeads returns module-lead staff for filter dropdowns.
func (s *ModuleService) ListLeads(ctx context.Context, search string) ([]models.User, error) {
	role := models.RoleModuleLead
	users, err := s.users.List(ctx, models.UserFilter{Role: &role, Search: search})
	if err != nil {
		s.logger.Error("lead list failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lead list failed")
	}
	return users, nil
}
