package api

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultExpiryWindowDays = 7

// CatalogHandler serves the read-only reference data and the dashboard.
type CatalogHandler struct {
	plans     *domain.PlanCatalog
	exercises service.ExerciseCatalog
	students  service.StudentStore
	workouts  service.WorkoutStore
	now       func() time.Time
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(plans *domain.PlanCatalog, exercises service.ExerciseCatalog, students service.StudentStore, workouts service.WorkoutStore) *CatalogHandler {
	return &CatalogHandler{plans: plans, exercises: exercises, students: students, workouts: workouts, now: time.Now}
}

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.plans.All())
}

// ListExercises godoc
// @Summary List the exercise catalog
// @Description Filters by muscle group, or returns sections in display order when grouped=true.
// @Tags Exercises
// @Produce json
// @Param muscleGroup query string false "Muscle group"
// @Param grouped query bool false "Group by muscle group"
// @Success 200 {array} domain.Exercise
// @Failure 502 {object} gin.H "Catalog could not be loaded"
// @Router /exercises [get]
func (h *CatalogHandler) ListExercises(c *gin.Context) {
	ctx := c.Request.Context()
	if grouped, _ := strconv.ParseBool(c.Query("grouped")); grouped {
		groups, err := h.exercises.Grouped(ctx)
		if err != nil {
			respondWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, groups)
		return
	}

	var (
		exercises []domain.Exercise
		err       error
	)
	if group := c.Query("muscleGroup"); group != "" {
		exercises, err = h.exercises.ListByMuscleGroup(ctx, group)
	} else {
		exercises, err = h.exercises.List(ctx)
	}
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

func (h *CatalogHandler) GetExercise(c *gin.Context) {
	ex, err := h.exercises.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

// Dashboard summarizes the current snapshots. ?days= sets the expiry window.
func (h *CatalogHandler) Dashboard(c *gin.Context) {
	days := defaultExpiryWindowDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}
	summary := service.Summarize(
		h.students.Snapshot().Items,
		h.workouts.Snapshot().Items,
		h.now(),
		time.Duration(days)*24*time.Hour,
	)
	c.JSON(http.StatusOK, summary)
}

// Refresh re-fetches both stores. The first failure is reported.
func (h *CatalogHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	studentsErr := h.students.FetchAll(ctx)
	workoutsErr := h.workouts.FetchAll(ctx)
	for _, err := range []error{studentsErr, workoutsErr} {
		if err != nil {
			respondWithServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"students": len(h.students.Snapshot().Items),
		"workouts": len(h.workouts.Snapshot().Items),
	})
}
