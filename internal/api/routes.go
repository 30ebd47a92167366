package api

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/logging"
	"alcyxob/gym-console/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter builds a gin engine with recovery and request logging.
func NewRouter(logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(logging.Component(logger, "http")))
	return router
}

func SetupRoutes(
	router *gin.Engine,
	resolver service.IdentityResolver,
	tokens TokenVerifier,
	studentStore service.StudentStore,
	workoutStore service.WorkoutStore,
	exerciseCatalog service.ExerciseCatalog,
	plans *domain.PlanCatalog,
) {
	authHandler := NewAuthHandler(resolver, tokens)
	studentHandler := NewStudentHandler(studentStore, workoutStore)
	workoutHandler := NewWorkoutHandler(workoutStore, studentStore)
	catalogHandler := NewCatalogHandler(plans, exerciseCatalog, studentStore, workoutStore)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/session", authHandler.Session)
		}
	}

	protected := apiV1.Group("")
	protected.Use(SessionMiddleware(resolver, tokens))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/refresh", authHandler.RefreshSession)

		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
				return
			}
			resp := gin.H{"userId": userID}
			if profile, ok := getProfileFromContext(c); ok {
				resp["profile"] = profile
			}
			c.JSON(http.StatusOK, resp)
		})

		protected.GET("/plans", catalogHandler.ListPlans)
		protected.GET("/exercises", catalogHandler.ListExercises)
		protected.GET("/exercises/:id", catalogHandler.GetExercise)
		protected.GET("/dashboard", catalogHandler.Dashboard)
		protected.POST("/refresh", catalogHandler.Refresh)

		studentGroup := protected.Group("/students")
		{
			studentGroup.GET("", studentHandler.ListStudents)
			studentGroup.POST("", studentHandler.CreateStudent)
			studentGroup.GET("/:id", studentHandler.GetStudent)
			studentGroup.PATCH("/:id", studentHandler.UpdateStudent)
			studentGroup.DELETE("/:id", studentHandler.DeleteStudent)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.ListSheets)
			workoutGroup.POST("", workoutHandler.CreateSheet)
			workoutGroup.GET("/:id", workoutHandler.GetSheet)
			workoutGroup.PUT("/:id", workoutHandler.UpdateSheet)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteSheet)
			workoutGroup.GET("/:id/candidates", workoutHandler.ListCandidates)
			workoutGroup.PUT("/:id/students", workoutHandler.SetStudents)
		}
	}
}
