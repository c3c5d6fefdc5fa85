package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/modtrack/amr-api/internal/models"
	"github.com/modtrack/amr-api/pkg/export"
	appErrors "github.com/modtrack/amr-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Code", "Title", "Area", "Location", "Level", "Period", "Lead", "Status", "Last Review"}

// ExportResult is a rendered document ready to stream to the caller.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

type exportArchive interface {
	Save(filename string, data []byte) (string, error)
}

// ExportService renders the filtered module table as CSV or PDF.
type ExportService struct {
	query   *ModuleQueryService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	archive exportArchive
	logger  *zap.Logger
}

// NewExportService constructs an ExportService. A nil archive disables the
// on-disk copy of rendered exports.
func NewExportService(query *ModuleQueryService, archive exportArchive, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		query:   query,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		archive: archive,
		logger:  logger,
	}
}

// ExportModules runs the table pipeline without pagination and renders the
// result in the requested format.
func (s *ExportService) ExportModules(ctx context.Context, filter models.ModuleFilter, format ExportFormat) (*ExportResult, error) {
	rows, err := s.query.QueryAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, exportRow(row))
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("csv render failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export render failed")
		}
		return s.finish(fmt.Sprintf("module-reviews-%s.csv", stamp), "text/csv", content), nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Module Annual Reviews")
		if err != nil {
			s.logger.Error("pdf render failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export render failed")
		}
		return s.finish(fmt.Sprintf("module-reviews-%s.pdf", stamp), "application/pdf", content), nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
}

func (s *ExportService) finish(filename, contentType string, content []byte) *ExportResult {
	if s.archive != nil {
		if _, err := s.archive.Save(filename, content); err != nil {
			s.logger.Warn("export archive write failed", zap.String("filename", filename), zap.Error(err))
		}
	}
	return &ExportResult{Filename: filename, ContentType: contentType, Content: content}
}

// exportRow flattens a table row into cells matching exportHeaders order.
func exportRow(row models.ModuleRow) []string {
	lastReview := ""
	if row.LastReviewDate != nil {
		lastReview = row.LastReviewDate.Format("2006-01-02")
	}
	return []string{
		row.Code,
		row.Title,
		derefOrEmpty(row.Area),
		derefOrEmpty(row.Location),
		strconv.Itoa(row.Level),
		row.Period,
		row.LeadName,
		string(row.Status),
		lastReview,
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
