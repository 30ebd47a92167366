package api

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler exposes the workout sheet store and the association picker.
type WorkoutHandler struct {
	workouts service.WorkoutStore
	students service.StudentStore
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workouts service.WorkoutStore, students service.StudentStore) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts, students: students}
}

// --- DTOs ---

// SetStudentsRequest replaces the students attached to a sheet.
type SetStudentsRequest struct {
	StudentIDs []string `json:"studentIds"`
}

// SheetDetailResponse is a sheet with its attached roster entries.
type SheetDetailResponse struct {
	domain.WorkoutSheet
	Students []StudentResponse `json:"students"`
}

func (h *WorkoutHandler) sheetOr404(c *gin.Context) (domain.WorkoutSheet, bool) {
	id := c.Param("id")
	sheet, ok := h.workouts.GetByID(id)
	if !ok {
		respondWithServiceError(c, &service.NotFoundError{Entity: "workout sheet", ID: id})
	}
	return sheet, ok
}

// --- Handler Methods ---

// ListSheets godoc
// @Summary List workout sheets
// @Tags Workouts
// @Produce json
// @Success 200 {array} domain.WorkoutSheet
// @Failure 502 {object} gin.H "Sheets could not be loaded"
// @Router /workouts [get]
func (h *WorkoutHandler) ListSheets(c *gin.Context) {
	snap := h.workouts.Snapshot()
	if snap.Err != nil {
		respondWithServiceError(c, snap.Err)
		return
	}
	c.JSON(http.StatusOK, snap.Items)
}

func (h *WorkoutHandler) GetSheet(c *gin.Context) {
	sheet, ok := h.sheetOr404(c)
	if !ok {
		return
	}
	students := service.StudentsForSheet(sheet, h.students.Snapshot().Items)
	c.JSON(http.StatusOK, SheetDetailResponse{WorkoutSheet: sheet, Students: MapStudentsToResponse(students)})
}

// CreateSheet godoc
// @Summary Create a workout sheet
// @Description The exercise list order becomes the stored order. At least one exercise is required.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param sheet body service.SheetInput true "Sheet content"
// @Success 201 {object} domain.WorkoutSheet
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 502 {object} gin.H "Backend write failed"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateSheet(c *gin.Context) {
	var input service.SheetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	id, err := h.workouts.Add(c.Request.Context(), input)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	sheet, ok := h.workouts.GetByID(id)
	if !ok {
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	c.JSON(http.StatusCreated, sheet)
}

// UpdateSheet replaces the header and the whole exercise list.
func (h *WorkoutHandler) UpdateSheet(c *gin.Context) {
	id := c.Param("id")
	var input service.SheetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if err := h.workouts.Update(c.Request.Context(), id, input); err != nil {
		respondWithServiceError(c, err)
		return
	}
	sheet, _ := h.workouts.GetByID(id)
	c.JSON(http.StatusOK, sheet)
}

func (h *WorkoutHandler) DeleteSheet(c *gin.Context) {
	if err := h.workouts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCandidates returns the roster, filtered by search, with each student
// marked when already attached to the sheet.
func (h *WorkoutHandler) ListCandidates(c *gin.Context) {
	sheet, ok := h.sheetOr404(c)
	if !ok {
		return
	}
	draft := service.NewAssociationDraft(sheet)
	c.JSON(http.StatusOK, draft.Candidates(h.students.Snapshot().Items, c.Query("search")))
}

// SetStudents godoc
// @Summary Replace the students attached to a sheet
// @Description Duplicates are dropped. An empty list detaches everyone.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Sheet ID"
// @Param students body SetStudentsRequest true "Student IDs"
// @Success 200 {object} SheetDetailResponse
// @Failure 404 {object} gin.H "Sheet not found"
// @Failure 502 {object} gin.H "Backend write failed"
// @Router /workouts/{id}/students [put]
func (h *WorkoutHandler) SetStudents(c *gin.Context) {
	var req SetStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sheet, ok := h.sheetOr404(c)
	if !ok {
		return
	}

	draft := service.NewAssociationDraft(sheet)
	draft.Set(req.StudentIDs)
	if draft.Dirty() {
		if err := draft.Save(c.Request.Context(), h.workouts); err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	h.GetSheet(c)
}
