package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lyceum/internal/models"
	"lyceum/internal/storage"
)

// ErrCourseCodeTaken is returned when a course code already exists.
var ErrCourseCodeTaken = errors.New("a course with this code already exists")

// CourseService serves the course catalog.
type CourseService interface {
	CreateCourse(ctx context.Context, code, title, major, subject string, keywords []string) (*models.Course, error)
	GetCourse(ctx context.Context, courseID uint) (*models.Course, error)
	SearchCourses(ctx context.Context, query string, limit int) ([]models.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]models.Course, error)
}

type courseService struct {
	courseRepo storage.CourseRepository
}

// NewCourseService creates a new CourseService instance.
func NewCourseService(courseRepo storage.CourseRepository) CourseService {
	return &courseService{courseRepo: courseRepo}
}

func (s *courseService) CreateCourse(ctx context.Context, code, title, major, subject string, keywords []string) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || title == "" {
		return nil, fmt.Errorf("course code and title must not be empty")
	}

	course := &models.Course{
		Code:    code,
		Title:   title,
		Major:   major,
		Subject: subject,
	}
	if len(keywords) > 0 {
		data, err := json.Marshal(keywords)
		if err != nil {
			return nil, fmt.Errorf("failed to encode keywords: %w", err)
		}
		course.Keywords = data
	}

	if err := s.courseRepo.CreateCourse(ctx, course); err != nil {
		if storage.IsDuplicateKey(err) {
			return nil, ErrCourseCodeTaken
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	return s.courseRepo.GetCourseByID(ctx, courseID)
}

func (s *courseService) SearchCourses(ctx context.Context, query string, limit int) ([]models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Course{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.courseRepo.SearchCourses(ctx, query, limit)
}

func (s *courseService) ListCourses(ctx context.Context, limit, offset int) ([]models.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.courseRepo.ListCourses(ctx, limit, offset)
}
