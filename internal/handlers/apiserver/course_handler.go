package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lyceum/internal/services"
	"lyceum/internal/storage"
)

// CourseHandler wraps the course catalog endpoints.
type CourseHandler struct {
	CourseService services.CourseService
}

// NewCourseHandler creates a new CourseHandler instance.
func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{CourseService: courseService}
}

// CreateCourseRequest is the body for creating a course (admin only).
type CreateCourseRequest struct {
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Major    string   `json:"major,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// CreateCourse handles POST /admin/courses.
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	course, err := h.CourseService.CreateCourse(r.Context(), req.Code, req.Title, req.Major, req.Subject, req.Keywords)
	if err != nil {
		if errors.Is(err, services.ErrCourseCodeTaken) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSONError(w, "failed to create course", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusCreated, course)
}

// GetCourse handles GET /courses/{courseId}.
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		writeJSONError(w, "invalid course id", http.StatusBadRequest)
		return
	}
	course, err := h.CourseService.GetCourse(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, storage.ErrCourseNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSONError(w, "failed to load course", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, course)
}

// ListCourses handles GET /courses. With a q parameter it searches.
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 50)

	if query != "" {
		courses, err := h.CourseService.SearchCourses(r.Context(), query, limit)
		if err != nil {
			writeJSONError(w, "course search failed", http.StatusInternalServerError)
			return
		}
		writeJSONResponse(w, http.StatusOK, courses)
		return
	}

	offset := queryInt(r, "offset", 0)
	courses, err := h.CourseService.ListCourses(r.Context(), limit, offset)
	if err != nil {
		writeJSONError(w, "failed to list courses", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, courses)
}
