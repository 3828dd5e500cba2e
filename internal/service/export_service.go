package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/export"
)

// Export output formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type exportEvaluationSource interface {
	ListByExaminer(ctx context.Context, examinerID string, filter models.EvaluationFilter) ([]models.Evaluation, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportArchive interface {
	Save(name string, data []byte) (string, error)
	Open(name string) ([]byte, error)
}

type downloadSigner interface {
	Sign(name string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// ExportResult carries a rendered document ready for download. DownloadToken
// is set when the document was archived and can be fetched again later.
type ExportResult struct {
	Filename      string
	ContentType   string
	Payload       []byte
	DownloadToken string
}

// ExportService renders an examiner's evaluations as CSV or PDF.
type ExportService struct {
	evaluations exportEvaluationSource
	csv         csvRenderer
	pdf         pdfRenderer
	archive     exportArchive
	signer      downloadSigner
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(evaluations exportEvaluationSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{evaluations: evaluations, csv: csv, pdf: pdf, logger: logger}
}

// WithArchive enables archiving of rendered documents and signed re-downloads.
func (s *ExportService) WithArchive(archive exportArchive, signer downloadSigner) *ExportService {
	s.archive = archive
	s.signer = signer
	return s
}

// Evaluations renders the examiner's grades in the requested format.
func (s *ExportService) Evaluations(ctx context.Context, examinerID, format string, filter models.EvaluationFilter) (*ExportResult, error) {
	rows, err := s.evaluations.ListByExaminer(ctx, examinerID, filter)
	if err != nil {
		return nil, err
	}

	dataset := buildEvaluationDataset(rows)
	timestamp := time.Now().UTC().Format("20060102_150405")

	var result *ExportResult
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		result = &ExportResult{
			Filename:    fmt.Sprintf("evaluations_%s.csv", timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Evaluations")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		result = &ExportResult{
			Filename:    fmt.Sprintf("evaluations_%s.pdf", timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}

	s.archiveResult(examinerID, result)
	return result, nil
}

// archiveResult keeps a copy of the document and attaches a signed download
// token. Archiving is best effort and never fails the export itself.
func (s *ExportService) archiveResult(examinerID string, result *ExportResult) {
	if s.archive == nil || s.signer == nil {
		return
	}

	name := examinerID + "/" + result.Filename
	if _, err := s.archive.Save(name, result.Payload); err != nil {
		s.logger.Warn("failed to archive export", zap.String("name", name), zap.Error(err))
		return
	}

	token, _, err := s.signer.Sign(name)
	if err != nil {
		s.logger.Warn("failed to sign export download token", zap.String("name", name), zap.Error(err))
		return
	}
	result.DownloadToken = token
}

// Archived fetches a previously archived document by its download token.
func (s *ExportService) Archived(ctx context.Context, token string) (*ExportResult, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export archive is not enabled")
	}

	name, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	payload, err := s.archive.Open(name)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived export no longer available")
	}

	contentType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}

	return &ExportResult{
		Filename:    path.Base(name),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildEvaluationDataset(rows []models.Evaluation) export.Dataset {
	headers := []string{"Evaluation ID", "Conversation ID", "Student ID", "Hackathon ID", "Task ID", "Note", "Comment", "Graded At"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Evaluation ID":   row.ID,
			"Conversation ID": row.ConversationID,
			"Student ID":      row.StudentID,
			"Hackathon ID":    derefString(row.HackathonID),
			"Task ID":         derefString(row.TaskID),
			"Note":            fmt.Sprintf("%d", row.Note),
			"Comment":         row.Comment,
			"Graded At":       row.GradedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
