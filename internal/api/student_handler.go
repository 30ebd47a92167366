package api

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/service"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// StudentHandler exposes the roster store.
type StudentHandler struct {
	students service.StudentStore
	workouts service.WorkoutStore
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(students service.StudentStore, workouts service.WorkoutStore) *StudentHandler {
	return &StudentHandler{students: students, workouts: workouts}
}

// --- DTOs ---

// CreateStudentRequest is accepted as JSON or as multipart form fields with
// an optional "photo" file part.
type CreateStudentRequest struct {
	Email         string `json:"email" form:"email" binding:"required,email"`
	Password      string `json:"password" form:"password" binding:"required"`
	DisplayName   string `json:"displayName" form:"displayName" binding:"required"`
	CPF           string `json:"cpf" form:"cpf" binding:"required"`
	Phone         string `json:"phone" form:"phone"`
	BirthDate     string `json:"birthDate" form:"birthDate"` // YYYY-MM-DD or RFC 3339
	CurrentPlanID string `json:"currentPlanId" form:"currentPlanId"`
	Observations  string `json:"observations" form:"observations"`
}

// UpdateStudentRequest carries only the fields to change.
type UpdateStudentRequest struct {
	DisplayName    *string `json:"displayName" form:"displayName"`
	CPF            *string `json:"cpf" form:"cpf"`
	Phone          *string `json:"phone" form:"phone"`
	BirthDate      *string `json:"birthDate" form:"birthDate"`
	CurrentPlanID  *string `json:"currentPlanId" form:"currentPlanId"`
	PlanExpiryDate *string `json:"planExpiryDate" form:"planExpiryDate"`
	PaymentStatus  *string `json:"paymentStatus" form:"paymentStatus"`
	Observations   *string `json:"observations" form:"observations"`
	ClearPhoto     bool    `json:"clearPhoto" form:"clearPhoto"`
}

// StudentResponse is a roster entry plus its payment badge.
type StudentResponse struct {
	domain.Student
	PaymentLabel string `json:"paymentLabel"`
	PaymentTone  string `json:"paymentTone"`
}

// StudentDetailResponse adds the sheets associated with the student.
type StudentDetailResponse struct {
	StudentResponse
	Sheets []domain.WorkoutSheet `json:"sheets"`
}

func MapStudentToResponse(s domain.Student) StudentResponse {
	return StudentResponse{
		Student:      s,
		PaymentLabel: s.PaymentStatus.Label(),
		PaymentTone:  s.PaymentStatus.Tone(),
	}
}

func MapStudentsToResponse(students []domain.Student) []StudentResponse {
	out := make([]StudentResponse, len(students))
	for i, s := range students {
		out[i] = MapStudentToResponse(s)
	}
	return out
}

// parseDate accepts a plain date or an RFC 3339 timestamp. Blank means unset.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return nil, &service.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD)"}
		}
	}
	t = t.UTC()
	return &t, nil
}

// photoFromRequest reads the optional "photo" part of a multipart request.
// The returned closer must be called once the upload is done.
func photoFromRequest(c *gin.Context) (*domain.PhotoUpload, io.Closer, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil, nil
	}
	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &domain.PhotoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}, f, nil
}

// --- Handler Methods ---

// ListStudents godoc
// @Summary List the roster
// @Description Returns the roster sorted by name, filtered by name or CPF when search is set.
// @Tags Students
// @Produce json
// @Param search query string false "Name or CPF fragment"
// @Success 200 {array} StudentResponse
// @Failure 502 {object} gin.H "Roster could not be loaded"
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	snap := h.students.Snapshot()
	if snap.Err != nil {
		respondWithServiceError(c, snap.Err)
		return
	}
	c.JSON(http.StatusOK, MapStudentsToResponse(service.FilterStudents(snap.Items, c.Query("search"))))
}

// GetStudent returns one roster entry and its sheets.
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")
	student, ok := h.students.GetByID(id)
	if !ok {
		respondWithServiceError(c, &service.NotFoundError{Entity: "student", ID: id})
		return
	}
	c.JSON(http.StatusOK, StudentDetailResponse{
		StudentResponse: MapStudentToResponse(student),
		Sheets:          service.SheetsForStudent(id, h.workouts.Snapshot().Items),
	})
}

// CreateStudent godoc
// @Summary Create a student
// @Description Creates the identity, profile and student rows. A photo may be sent as multipart part "photo".
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} StudentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already registered"
// @Failure 502 {object} gin.H "Backend write failed"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	birthDate, err := parseDate("birthDate", req.BirthDate)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	photo, closer, err := photoFromRequest(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid photo upload")
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	id, err := h.students.Add(c.Request.Context(), service.AddStudentInput{
		Email:         req.Email,
		Password:      req.Password,
		DisplayName:   req.DisplayName,
		CPF:           req.CPF,
		Phone:         req.Phone,
		BirthDate:     birthDate,
		CurrentPlanID: req.CurrentPlanID,
		Observations:  req.Observations,
		Photo:         photo,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	student, ok := h.students.GetByID(id)
	if !ok {
		// Written, but the refresh that follows did not bring it back.
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, MapStudentToResponse(student))
}

// UpdateStudent godoc
// @Summary Update a student
// @Description Applies the given fields. Changing the plan restarts its expiry from today.
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} StudentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Student not found"
// @Failure 502 {object} gin.H "Backend write failed"
// @Router /students/{id} [patch]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	var req UpdateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	patch := service.StudentPatch{
		DisplayName:   req.DisplayName,
		CPF:           req.CPF,
		Phone:         req.Phone,
		CurrentPlanID: req.CurrentPlanID,
		Observations:  req.Observations,
		ClearPhoto:    req.ClearPhoto,
	}
	if req.PaymentStatus != nil {
		status := domain.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &status
	}
	var err error
	if req.BirthDate != nil {
		if patch.BirthDate, err = parseDate("birthDate", *req.BirthDate); err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	if req.PlanExpiryDate != nil {
		if patch.PlanExpiryDate, err = parseDate("planExpiryDate", *req.PlanExpiryDate); err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	photo, closer, err := photoFromRequest(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid photo upload")
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	patch.Photo = photo

	if err := h.students.Update(c.Request.Context(), id, patch); err != nil {
		respondWithServiceError(c, err)
		return
	}
	student, ok := h.students.GetByID(id)
	if !ok {
		// Written, but the refresh that follows did not bring it back.
		c.JSON(http.StatusOK, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusOK, MapStudentToResponse(student))
}

// DeleteStudent removes the student and refreshes the sheets, whose
// associations changed with it.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.students.Delete(ctx, c.Param("id")); err != nil {
		respondWithServiceError(c, err)
		return
	}
	_ = h.workouts.FetchAll(ctx)
	c.Status(http.StatusNoContent)
}
