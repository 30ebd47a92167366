package domain

// WorkoutSheet is a named, ordered list of exercise assignments plus the set
// of students it is associated with.
type WorkoutSheet struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Goal                 string               `json:"goal,omitempty"`
	Exercises            []ExerciseAssignment `json:"exercises"`
	AssociatedStudentIDs []string             `json:"associatedStudentIds"` // sorted, unique
}

// HasStudent reports whether studentID is associated with the sheet.
func (w *WorkoutSheet) HasStudent(studentID string) bool {
	for _, id := range w.AssociatedStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// WorkoutGoals are the goals offered by the sheet editor.
var WorkoutGoals = []string{"Hipertrofia", "Emagrecimento", "Resistência", "Força", "Condicionamento", "Manutenção"}
