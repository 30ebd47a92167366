package service

import (
	"alcyxob/gym-console/internal/domain"
	"fmt"
)

// SheetDraft is an editable sheet: a header and an ordered exercise list that
// may be empty while editing. Input validates it for saving.
type SheetDraft struct {
	Name      string
	Goal      string
	exercises []AssignmentInput
}

// DraftFromSheet starts a draft from a saved sheet.
func DraftFromSheet(sheet domain.WorkoutSheet) *SheetDraft {
	d := &SheetDraft{Name: sheet.Name, Goal: sheet.Goal}
	for _, ex := range sheet.Exercises {
		d.exercises = append(d.exercises, AssignmentInput{
			ExerciseID:   ex.ExerciseID,
			Sets:         ex.Sets,
			Reps:         ex.Reps,
			Load:         ex.Load,
			Observations: ex.Observations,
		})
	}
	return d
}

// Append adds a catalog exercise at the end with an empty prescription.
func (d *SheetDraft) Append(ex domain.Exercise) {
	d.exercises = append(d.exercises, AssignmentInput{ExerciseID: ex.ID})
}

func (d *SheetDraft) checkIndex(i int) error {
	if i < 0 || i >= len(d.exercises) {
		return &ValidationError{Field: "exercises", Message: fmt.Sprintf("no exercise at position %d", i)}
	}
	return nil
}

// Remove drops the exercise at position i.
func (d *SheetDraft) Remove(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.exercises = append(d.exercises[:i], d.exercises[i+1:]...)
	return nil
}

// Move shifts the exercise at from to position to.
func (d *SheetDraft) Move(from, to int) error {
	if err := d.checkIndex(from); err != nil {
		return err
	}
	if err := d.checkIndex(to); err != nil {
		return err
	}
	ex := d.exercises[from]
	d.exercises = append(d.exercises[:from], d.exercises[from+1:]...)
	d.exercises = append(d.exercises[:to], append([]AssignmentInput{ex}, d.exercises[to:]...)...)
	return nil
}

// Prescribe sets the sets, reps, load, and notes of the exercise at i.
func (d *SheetDraft) Prescribe(i int, sets, reps, load, observations string) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	ex := &d.exercises[i]
	ex.Sets, ex.Reps, ex.Load, ex.Observations = sets, reps, load, observations
	return nil
}

// Exercises returns a copy of the current list.
func (d *SheetDraft) Exercises() []AssignmentInput {
	out := make([]AssignmentInput, len(d.exercises))
	copy(out, d.exercises)
	return out
}

// Input returns the save payload, rejecting a blank name or an empty list.
func (d *SheetDraft) Input() (SheetInput, error) {
	return normalizeSheetInput(SheetInput{Name: d.Name, Goal: d.Goal, Exercises: d.Exercises()})
}
