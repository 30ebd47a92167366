package domain

// Exercise is an entry of the exercise catalog. Read-only reference data.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
}

// MuscleGroups lists the catalog's muscle groups in display order.
var MuscleGroups = []string{"Peito", "Costas", "Pernas", "Ombros", "Bíceps", "Tríceps", "Abdômen", "Cardio", "Outro"}
