package domain

// ExerciseAssignment places a catalog exercise inside a workout sheet with
// sheet-specific prescription. Name and MuscleGroup come from the catalog.
type ExerciseAssignment struct {
	ExerciseID   string `json:"exerciseId"`
	Name         string `json:"name"`
	MuscleGroup  string `json:"muscleGroup"`
	Sets         string `json:"sets,omitempty"`
	Reps         string `json:"reps,omitempty"`
	Load         string `json:"load,omitempty"`
	Observations string `json:"observations,omitempty"`
	Order        int    `json:"order"` // zero-based position within the sheet
}
