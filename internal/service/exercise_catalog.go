package service

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"

	"golang.org/x/text/language"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
)

// MuscleGroupExercises is one section of the grouped catalog.
type MuscleGroupExercises struct {
	MuscleGroup string            `json:"muscleGroup"`
	Exercises   []domain.Exercise `json:"exercises"`
}

// ExerciseCatalog reads the static exercise reference data.
type ExerciseCatalog interface {
	List(ctx context.Context) ([]domain.Exercise, error)
	GetByID(ctx context.Context, id string) (domain.Exercise, error)
	ListByMuscleGroup(ctx context.Context, muscleGroup string) ([]domain.Exercise, error)
	// Grouped sections follow domain.MuscleGroups; unknown groups come last.
	Grouped(ctx context.Context) ([]MuscleGroupExercises, error)
}

// exerciseCatalog implements the ExerciseCatalog interface.
type exerciseCatalog struct {
	tables repository.Tables
	locale language.Tag
}

// NewExerciseCatalog creates a new instance of exerciseCatalog.
func NewExerciseCatalog(tables repository.Tables, locale language.Tag) ExerciseCatalog {
	return &exerciseCatalog{tables: tables, locale: locale}
}

func (c *exerciseCatalog) query(ctx context.Context, filter repository.Filter) ([]domain.Exercise, error) {
	rows, err := c.tables.Select(ctx, repository.Query{Table: repository.TableExercises, Filter: filter})
	if err != nil {
		return nil, &RemoteReadError{Step: "fetch exercises", Err: err}
	}
	records, err := decodeRows[ExerciseRecord](rows)
	if err != nil {
		return nil, &RemoteReadError{Step: "decode exercises", Err: err}
	}
	exercises := make([]domain.Exercise, 0, len(records))
	for _, r := range records {
		exercises = append(exercises, domain.Exercise{ID: r.ID, Name: r.Name, MuscleGroup: r.MuscleGroup})
	}
	sortByName(exercises, c.locale,
		func(e domain.Exercise) string { return e.Name },
		func(e domain.Exercise) string { return e.ID })
	return exercises, nil
}

// List returns every exercise sorted by name.
func (c *exerciseCatalog) List(ctx context.Context) ([]domain.Exercise, error) {
	return c.query(ctx, nil)
}

// GetByID retrieves a single exercise.
func (c *exerciseCatalog) GetByID(ctx context.Context, id string) (domain.Exercise, error) {
	exercises, err := c.query(ctx, repository.Filter{"id": id})
	if err != nil {
		return domain.Exercise{}, err
	}
	if len(exercises) == 0 {
		return domain.Exercise{}, ErrExerciseNotFound
	}
	return exercises[0], nil
}

func (c *exerciseCatalog) ListByMuscleGroup(ctx context.Context, muscleGroup string) ([]domain.Exercise, error) {
	return c.query(ctx, repository.Filter{"muscle_group": muscleGroup})
}

func (c *exerciseCatalog) Grouped(ctx context.Context) ([]MuscleGroupExercises, error) {
	exercises, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[string][]domain.Exercise)
	var extra []string
	known := make(map[string]bool, len(domain.MuscleGroups))
	for _, g := range domain.MuscleGroups {
		known[g] = true
	}
	for _, ex := range exercises {
		if !known[ex.MuscleGroup] {
			if _, seen := byGroup[ex.MuscleGroup]; !seen {
				extra = append(extra, ex.MuscleGroup)
			}
		}
		byGroup[ex.MuscleGroup] = append(byGroup[ex.MuscleGroup], ex)
	}

	var groups []MuscleGroupExercises
	for _, g := range append(append([]string{}, domain.MuscleGroups...), extra...) {
		if list := byGroup[g]; len(list) > 0 {
			groups = append(groups, MuscleGroupExercises{MuscleGroup: g, Exercises: list})
		}
	}
	return groups, nil
}
