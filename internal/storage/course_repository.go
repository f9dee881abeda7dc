package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lyceum/internal/models"
)

// ErrCourseNotFound is returned when a course cannot be found.
var ErrCourseNotFound = errors.New("course not found")

// CourseRepository defines the interface for course catalog operations.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourseByID(ctx context.Context, id uint) (*models.Course, error)
	GetCourseByCode(ctx context.Context, code string) (*models.Course, error)
	SearchCourses(ctx context.Context, query string, limit int) ([]models.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]models.Course, error)
}

type gormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GORM-backed course repository.
func NewGormCourseRepository(db *gorm.DB) CourseRepository {
	return &gormCourseRepository{db: db}
}

func (r *gormCourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *gormCourseRepository) GetCourseByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *gormCourseRepository) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *gormCourseRepository) SearchCourses(ctx context.Context, query string, limit int) ([]models.Course, error) {
	var courses []models.Course
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("code LIKE ? OR title LIKE ? OR subject LIKE ?", pattern, pattern, pattern).
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *gormCourseRepository) ListCourses(ctx context.Context, limit, offset int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Order("code ASC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error
	return courses, err
}
