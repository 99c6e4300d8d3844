package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pace-projection-api/internal/models"
	"github.com/noah-isme/pace-projection-api/pkg/export"
	"github.com/noah-isme/pace-projection-api/pkg/storage"
)

type exportProjectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Projection, error)
}

type exportPaceReader interface {
	ListByProjection(ctx context.Context, projectionID string) ([]models.ProjectionPace, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders stored projections and persists the files.
type ExportService struct {
	projections exportProjectionReader
	paces       exportPaceReader
	storage     fileStorage
	renderers   map[models.ExportFormat]datasetRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(projections exportProjectionReader, paces exportPaceReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		projections: projections,
		paces:       paces,
		storage:     files,
		renderers: map[models.ExportFormat]datasetRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
	}
}

// Generate renders the job's projection, stores it and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ProjectionExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Format)
	}
	projection, err := s.projections.FindByID(ctx, job.ProjectionID)
	if err != nil {
		return nil, fmt.Errorf("load projection %s: %w", job.ProjectionID, err)
	}
	dataset, err := s.BuildDataset(ctx, projection)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Format, err)
	}
	relPath, err := s.storage.Save(s.buildFilename(job, projection, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Sugar().Infow("projection export rendered",
		"job_id", job.ID,
		"projection_id", projection.ID,
		"format", job.Format,
		"rows", dataset.RowCount(),
		"bytes", len(payload),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// BuildDataset lays the projection out as one section per quarter with rows in
// week order.
func (s *ExportService) BuildDataset(ctx context.Context, projection *models.Projection) (export.Dataset, error) {
	rows, err := s.paces.ListByProjection(ctx, projection.ID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("list projection paces: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Quarter != rows[j].Quarter {
			return rows[i].Quarter < rows[j].Quarter
		}
		return rows[i].Week < rows[j].Week
	})

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Pace Projection v%d (%s)", projection.Version, strings.ToLower(string(projection.Status))),
		Headers: []string{"Quarter", "Week", "Sub-Subject", "Pace"},
	}
	for _, row := range rows {
		name := fmt.Sprintf("Quarter %d", row.Quarter)
		if n := len(dataset.Sections); n == 0 || dataset.Sections[n-1].Name != name {
			dataset.Sections = append(dataset.Sections, export.Section{Name: name})
		}
		current := &dataset.Sections[len(dataset.Sections)-1]
		current.Rows = append(current.Rows, []string{
			strconv.Itoa(row.Quarter),
			strconv.Itoa(row.Week),
			row.SubSubjectID,
			strconv.Itoa(row.PaceCode),
		})
	}
	return dataset, nil
}

// ContentType returns the MIME type for a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadClaims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ProjectionExportJob, projection *models.Projection, ext string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	name := fmt.Sprintf("projection_%s_v%d_%s.%s", sanitizeFilename(projection.StudentID), projection.Version, timestamp, ext)
	return path.Join(sanitizeFilename(job.ID), name)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
