package main

import (
	"alcyxob/gym-console/internal/api"
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/config"
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/logging"
	"alcyxob/gym-console/internal/repository"
	"alcyxob/gym-console/internal/repository/memory"
	"alcyxob/gym-console/internal/repository/mongo"
	"alcyxob/gym-console/internal/service"
	"alcyxob/gym-console/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLogger := logging.New(os.Stderr, "info", false)
		bootLogger.Fatal().Err(err).Msg("could not load config")
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	logger.Info().Str("backend", cfg.Backend.Driver).Str("storage", cfg.Storage.Driver).Msg("configuration loaded")

	ctx := context.Background()

	// --- Backend ---
	tables, creds, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not open backend")
	}
	defer closeBackend()

	seedCtx, cancelSeed := context.WithTimeout(ctx, 30*time.Second)
	if err := repository.SeedReferenceData(seedCtx, tables); err != nil {
		logger.Fatal().Err(err).Msg("could not seed reference data")
	}
	cancelSeed()

	// --- Storage ---
	var fileStorage storage.FileStorage
	switch cfg.Storage.Driver {
	case config.DriverS3:
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logging.Component(logger, "s3"))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize S3 storage")
		}
	default:
		fileStorage = storage.NewMemoryStorage(cfg.S3.PublicBaseURL)
	}

	// --- Services ---
	plans, err := domain.NewPlanCatalog(cfg.Plans)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid plan catalog")
	}
	locale := service.ParseLocale(cfg.Locale)
	provider := auth.NewJWTProvider(creds, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Auth.SessionFile)
	adminCtx, cancelAdmin := context.WithTimeout(ctx, 30*time.Second)
	if err := ensureAdmin(adminCtx, provider, creds, tables, cfg.Auth, logging.Component(logger, "bootstrap")); err != nil {
		logger.Fatal().Err(err).Msg("could not ensure admin account")
	}
	cancelAdmin()
	backend := service.Backend{
		Tables:        tables,
		Auth:          provider,
		Storage:       fileStorage,
		AvatarsBucket: cfg.S3.AvatarsBucket,
	}
	students := service.NewStudentStore(backend, plans, locale, logger)
	workouts := service.NewWorkoutStore(tables, locale, logger)
	exercises := service.NewExerciseCatalog(tables, locale)
	resolver := service.NewIdentityResolver(backend, cfg.Auth.InitialSessionTimeout, logger)

	unsubscribe := resolver.Subscribe(syncStoresWithSession(students, workouts, logging.Component(logger, "session_sync")))
	defer unsubscribe()
	if err := resolver.Start(ctx); err != nil {
		// Not fatal: the console starts signed out.
		logger.Warn().Err(err).Msg("initial session check failed")
	}
	defer resolver.Stop()

	// --- HTTP ---
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(logger)
	api.SetupRoutes(router, resolver, provider, students, workouts, exercises, plans)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exiting")
}

// openBackend connects the configured table store and credential store.
func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.Tables, repository.CredentialRepository, func(), error) {
	if cfg.Backend.Driver != config.DriverMongo {
		logger.Warn().Msg("using in-memory backend; data is lost on exit")
		return memory.NewTables(), memory.NewCredentialRepository(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.ConnectDB(connectCtx, cfg.Database.URI)
	if err != nil {
		return nil, nil, nil, err
	}
	db := client.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// Index creation runs in the background, as it can be slow on large collections.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			logger.Error().Err(err).Msg("index creation failed")
			return
		}
		logger.Info().Msg("index creation completed")
	}()

	closeFn := func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(client); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}
	return mongo.NewMongoTables(db), mongo.NewMongoCredentialRepository(db), closeFn, nil
}

// ensureAdmin registers the configured staff account and gives it an admin
// profile. An account or profile that already exists is left as it is.
func ensureAdmin(ctx context.Context, provider auth.Provider, creds repository.CredentialRepository, tables repository.Tables, cfg config.AuthConfig, logger zerolog.Logger) error {
	if cfg.AdminEmail == "" {
		logger.Warn().Msg("auth.admin_email is not set; only existing accounts can sign in")
		return nil
	}

	var userID string
	identity, err := provider.SignUp(ctx, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case err == nil:
		userID = identity.ID
		logger.Info().Str("email", identity.Email).Msg("admin account created")
	case errors.Is(err, auth.ErrAlreadyRegistered):
		cred, err := creds.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cfg.AdminEmail)))
		if err != nil {
			return fmt.Errorf("look up admin account: %w", err)
		}
		userID = cred.ID
	default:
		return fmt.Errorf("register admin account: %w", err)
	}

	existing, err := tables.Select(ctx, repository.Query{
		Table:  repository.TableProfiles,
		Filter: repository.Filter{"id": userID},
	})
	if err != nil {
		return fmt.Errorf("look up admin profile: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	roles, err := tables.Select(ctx, repository.Query{
		Table:  repository.TableUserRoles,
		Filter: repository.Filter{"role_name": domain.RoleAdmin},
	})
	if err != nil {
		return fmt.Errorf("resolve admin role: %w", err)
	}
	if len(roles) == 0 {
		return errors.New("admin role is not seeded")
	}
	if err := tables.Insert(ctx, repository.TableProfiles, repository.Row{
		"id":          userID,
		"full_name":   cfg.AdminName,
		"avatar_path": nil,
		"role_id":     roles[0]["id"],
	}); err != nil {
		return fmt.Errorf("create admin profile: %w", err)
	}
	logger.Info().Str("user_id", userID).Msg("admin profile created")
	return nil
}

// syncStoresWithSession loads both stores when a user signs in and clears
// them on sign-out. Re-resolutions for the same user do not reload.
func syncStoresWithSession(students service.StudentStore, workouts service.WorkoutStore, logger zerolog.Logger) func(service.AuthState) {
	var (
		mu      sync.Mutex
		current string
	)
	return func(state service.AuthState) {
		userID := ""
		if state.Authenticated && state.Session != nil {
			userID = state.Session.UserID
		}

		mu.Lock()
		changed := userID != current
		current = userID
		mu.Unlock()
		if !changed {
			return
		}

		if userID == "" {
			students.Clear()
			workouts.Clear()
			logger.Info().Msg("stores cleared after sign-out")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := students.FetchAll(ctx); err != nil {
			logger.Error().Err(err).Msg("roster load failed")
		}
		if err := workouts.FetchAll(ctx); err != nil {
			logger.Error().Err(err).Msg("workout sheets load failed")
		}
	}
}
