package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrReportNotFound is returned when a report cannot be found.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository defines the interface for moderation report data operations.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByID(ctx context.Context, id uint) (*models.Report, error)
	ListReportsByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error)

	// Resolve moves a pending report to the given terminal status. It reports
	// whether the transition happened; a report that is already terminal is
	// left untouched.
	Resolve(ctx context.Context, reportID uint, status models.ReportStatus, resolvedBy uint) (bool, error)
}

type gormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GORM-backed report repository.
func NewGormReportRepository(db *gorm.DB) ReportRepository {
	return &gormReportRepository{db: db}
}

func (r *gormReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *gormReportRepository) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Preload("Reporter").First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *gormReportRepository) ListReportsByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

// Resolve guards the transition with a status predicate so two admins racing
// on the same report cannot both win.
func (r *gormReportRepository) Resolve(ctx context.Context, reportID uint, status models.ReportStatus, resolvedBy uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", reportID, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolvedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
