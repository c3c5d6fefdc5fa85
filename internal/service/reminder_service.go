package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/internal/repository"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
	"github.com/modtrack/amr-api/pkg/jobs"
	"github.com/modtrack/amr-api/pkg/mailer"
)

type reminderEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReminderPayload is the job payload for one reminder email.
type ReminderPayload struct {
	ModuleID    string
	ModuleTitle string
	LeadName    string
	LeadEmail   string
	Year        int
}

// ReminderRunResult reports what a reminder sweep queued.
type ReminderRunResult struct {
	Year            int `json:"year"`
	PendingModules  int `json:"pending_modules"`
	QueuedReminders int `json:"queued_reminders"`
	MissingLeads    int `json:"missing_leads"`
}

// ReminderService sweeps for modules whose consolidated status for a year
// is not Completed and queues a reminder email to each module's lead.
type ReminderService struct {
	modules moduleLister
	reviews reviewLister
	users   leadResolver
	queue   reminderEnqueuer
	sender  mailer.Sender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReminderService constructs a ReminderService. A nil metrics service
// disables sweep accounting.
func NewReminderService(modules moduleLister, reviews reviewLister, users leadResolver, queue reminderEnqueuer, sender mailer.Sender, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{modules: modules, reviews: reviews, users: users, queue: queue, sender: sender, metrics: metrics, logger: logger}
}

// Run queues reminders for every module still pending for the year.
func (s *ReminderService) Run(ctx context.Context, year int) (*ReminderRunResult, error) {
	modules, err := s.modules.List(ctx, repository.ModuleSnapshotFilter{})
	if err != nil {
		s.logger.Error("module snapshot fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "module lookup failed")
	}
	if len(modules) == 0 {
		return &ReminderRunResult{Year: year}, nil
	}

	ids := make([]string, 0, len(modules))
	for _, module := range modules {
		ids = append(ids, module.ID)
	}
	from, to := YearWindow(year)
	reviews, err := s.reviews.List(ctx, models.ReviewFilter{ModuleIDs: ids, From: &from, To: &to})
	if err != nil {
		s.logger.Error("review fetch failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review lookup failed")
	}
	byModule := make(map[string][]models.Review, len(ids))
	for _, review := range reviews {
		byModule[review.ModuleID] = append(byModule[review.ModuleID], review)
	}

	pending := make([]models.Module, 0)
	leadIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, module := range modules {
		if ConsolidateStatus(byModule[module.ID]) == models.StatusCompleted {
			continue
		}
		pending = append(pending, module)
		// Legacy module-level lead: the reminder address still comes from
		// modules.lead_id, not the variant leads.
		if module.LeadID != nil {
			if _, ok := seen[*module.LeadID]; !ok {
				seen[*module.LeadID] = struct{}{}
				leadIDs = append(leadIDs, *module.LeadID)
			}
		}
	}

	leads, err := s.users.FindByIDs(ctx, leadIDs)
	if err != nil {
		s.logger.Error("lead lookup failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lead lookup failed")
	}

	result := &ReminderRunResult{Year: year, PendingModules: len(pending)}
	for _, module := range pending {
		if module.LeadID == nil {
			result.MissingLeads++
			continue
		}
		lead, ok := leads[*module.LeadID]
		if !ok || lead.Email == "" {
			result.MissingLeads++
			continue
		}
		payload := ReminderPayload{
			ModuleID:    module.ID,
			ModuleTitle: module.Title,
			LeadName:    lead.FullName(),
			LeadEmail:   lead.Email,
			Year:        year,
		}
		if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "review-reminder", Payload: payload}); err != nil {
			s.logger.Error("reminder enqueue failed", zap.String("module_id", module.ID), zap.Error(err))
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reminder enqueue failed")
		}
		result.QueuedReminders++
	}

	s.metrics.RecordReminderSweep(result.QueuedReminders, result.MissingLeads)
	s.logger.Info("reminder sweep complete",
		zap.Int("year", year),
		zap.Int("pending", result.PendingModules),
		zap.Int("queued", result.QueuedReminders),
		zap.Int("missing_leads", result.MissingLeads),
	)
	return result, nil
}

// HandleJob delivers one queued reminder. Wire this as the queue handler.
func (s *ReminderService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReminderPayload)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	msg := mailer.Message{
		ToName:    payload.LeadName,
		ToAddress: payload.LeadEmail,
		Subject:   fmt.Sprintf("Annual review outstanding: %s (%d)", payload.ModuleTitle, payload.Year),
		TextBody: fmt.Sprintf(
			"Dear %s,\n\nThe annual review for %s has not been completed for %d. Please submit it through the module review tracker.\n",
			payload.LeadName, payload.ModuleTitle, payload.Year,
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reminder for module %s: %w", payload.ModuleID, err)
	}
	return nil
}
