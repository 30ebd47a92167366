package repository

import (
	"alcyxob/gym-console/internal/domain"
	"context"
	"fmt"
)

// ExerciseCatalog is the reference exercise list loaded into fresh backends.
var ExerciseCatalog = []domain.Exercise{
	{ID: "ex001", Name: "Supino Reto com Barra", MuscleGroup: "Peito"},
	{ID: "ex002", Name: "Crucifixo com Halteres", MuscleGroup: "Peito"},
	{ID: "ex010", Name: "Puxada Frontal", MuscleGroup: "Costas"},
	{ID: "ex011", Name: "Remada Curvada", MuscleGroup: "Costas"},
	{ID: "ex020", Name: "Agachamento Livre com Barra", MuscleGroup: "Pernas"},
	{ID: "ex021", Name: "Leg Press 45", MuscleGroup: "Pernas"},
	{ID: "ex030", Name: "Desenvolvimento com Halteres", MuscleGroup: "Ombros"},
	{ID: "ex040", Name: "Rosca Direta", MuscleGroup: "Bíceps"},
	{ID: "ex047", Name: "Tríceps Pulley com Barra", MuscleGroup: "Tríceps"},
	{ID: "ex050", Name: "Prancha", MuscleGroup: "Abdômen"},
	{ID: "ex060", Name: "Esteira", MuscleGroup: "Cardio"},
}

// SeedReferenceData upserts the role catalog and the exercise catalog.
// Safe to run on every start.
func SeedReferenceData(ctx context.Context, tables Tables) error {
	roles := []Row{
		{"id": 1, "role_name": domain.RoleAdmin},
		{"id": 2, "role_name": domain.RoleStudent},
	}
	if err := tables.Upsert(ctx, TableUserRoles, "role_name", roles...); err != nil {
		return fmt.Errorf("seed %s: %w", TableUserRoles, err)
	}

	exercises := make([]Row, 0, len(ExerciseCatalog))
	for _, ex := range ExerciseCatalog {
		exercises = append(exercises, Row{"id": ex.ID, "name": ex.Name, "muscle_group": ex.MuscleGroup})
	}
	if err := tables.Upsert(ctx, TableExercises, "id", exercises...); err != nil {
		return fmt.Errorf("seed %s: %w", TableExercises, err)
	}
	return nil
}
