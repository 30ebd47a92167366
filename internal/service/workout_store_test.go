package service

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"alcyxob/gym-console/internal/repository/memory"
	"context"
	"errors"
	"reflect"
	"testing"
)

func exerciseIDs(sheet domain.WorkoutSheet) []string {
	ids := make([]string, 0, len(sheet.Exercises))
	for _, ex := range sheet.Exercises {
		ids = append(ids, ex.ExerciseID)
	}
	return ids
}

func TestWorkoutStore_AddRejectsInvalidSheets(t *testing.T) {
	tests := []struct {
		name  string
		input SheetInput
		field string
	}{
		{"no exercises", SheetInput{Name: "Treino A"}, "exercises"},
		{"blank name", SheetInput{Name: "  ", Exercises: []AssignmentInput{{ExerciseID: "ex001"}}}, "name"},
		{"blank exercise id", SheetInput{Name: "Treino A", Exercises: []AssignmentInput{{ExerciseID: " "}}}, "exerciseId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.workouts.Add(context.Background(), tt.input)
			ve := asError[*ValidationError](t, err)
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if n := len(env.tables.Rows(repository.TableWorkoutSheets)); n != 0 {
				t.Errorf("%d sheet rows written", n)
			}
		})
	}
}

func TestWorkoutStore_AddDenseOrder(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSheet(t, "Treino A", "ex020", "ex001", "ex050")

	sheet, ok := env.workouts.GetByID(id)
	if !ok {
		t.Fatal("sheet not in snapshot")
	}
	if got := exerciseIDs(sheet); !reflect.DeepEqual(got, []string{"ex020", "ex001", "ex050"}) {
		t.Errorf("exercises = %v", got)
	}
	for i, ex := range sheet.Exercises {
		if ex.Order != i {
			t.Errorf("exercise %d has order %d", i, ex.Order)
		}
	}
	if sheet.Exercises[0].Name != "Agachamento Livre com Barra" || sheet.Exercises[0].MuscleGroup != "Pernas" {
		t.Errorf("catalog data not joined: %+v", sheet.Exercises[0])
	}
	if len(sheet.AssociatedStudentIDs) != 0 {
		t.Errorf("new sheet has students %v", sheet.AssociatedStudentIDs)
	}
}

func TestWorkoutStore_UnknownExerciseFallsBackToID(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSheet(t, "Treino X", "ex999")
	sheet, _ := env.workouts.GetByID(id)
	if sheet.Exercises[0].Name != "ex999" {
		t.Errorf("name = %q, want the exercise id", sheet.Exercises[0].Name)
	}
}

func TestWorkoutStore_UpdateReorders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.addSheet(t, "Treino A", "ex001", "ex010", "ex020")

	err := env.workouts.Update(ctx, id, SheetInput{
		Name: "Treino A2",
		Goal: "Força",
		Exercises: []AssignmentInput{
			{ExerciseID: "ex020", Sets: "5", Reps: "5", Load: "100kg"},
			{ExerciseID: "ex001", Sets: "4", Reps: "8"},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	sheet, _ := env.workouts.GetByID(id)
	if sheet.Name != "Treino A2" || sheet.Goal != "Força" {
		t.Errorf("header = %q/%q", sheet.Name, sheet.Goal)
	}
	if got := exerciseIDs(sheet); !reflect.DeepEqual(got, []string{"ex020", "ex001"}) {
		t.Errorf("exercises = %v, want [ex020 ex001]", got)
	}
	if sheet.Exercises[0].Order != 0 || sheet.Exercises[1].Order != 1 {
		t.Errorf("orders = %d,%d", sheet.Exercises[0].Order, sheet.Exercises[1].Order)
	}
	if sheet.Exercises[0].Load != "100kg" {
		t.Errorf("load = %q", sheet.Exercises[0].Load)
	}
	if n := len(env.tables.Rows(repository.TableWorkoutSheetExercises)); n != 2 {
		t.Errorf("%d assignment rows stored, want 2", n)
	}
}

func TestWorkoutStore_UpdateKeepsAssociations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.addStudent(t, "Ana", "a@x.com")
	id := env.addSheet(t, "Treino A", "ex001")
	if err := env.workouts.Associate(ctx, id, []string{student}); err != nil {
		t.Fatal(err)
	}

	if err := env.workouts.Update(ctx, id, SheetInput{Name: "Treino A", Exercises: []AssignmentInput{{ExerciseID: "ex002"}}}); err != nil {
		t.Fatal(err)
	}
	sheet, _ := env.workouts.GetByID(id)
	if !reflect.DeepEqual(sheet.AssociatedStudentIDs, []string{student}) {
		t.Errorf("associations = %v", sheet.AssociatedStudentIDs)
	}
}

func TestWorkoutStore_UpdateNotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.workouts.Update(context.Background(), "nope", SheetInput{Name: "X", Exercises: []AssignmentInput{{ExerciseID: "ex001"}}})
	nf := asError[*NotFoundError](t, err)
	if nf.Entity != "workout sheet" || nf.ID != "nope" {
		t.Errorf("err = %+v", nf)
	}
	if n := countOps(env.tables.Calls(), memory.OpDelete, repository.TableWorkoutSheetExercises); n != 0 {
		t.Errorf("assignments touched %d times for a missing sheet", n)
	}
}

func TestWorkoutStore_UpdateInsertFailureLeavesNoAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.addSheet(t, "Treino A", "ex001", "ex002")
	boom := errors.New("insert rejected")
	env.tables.FailOn(memory.OpInsert, repository.TableWorkoutSheetExercises, boom)

	err := env.workouts.Update(ctx, id, SheetInput{Name: "Treino A", Exercises: []AssignmentInput{{ExerciseID: "ex010"}}})
	rw := asError[*RemoteWriteError](t, err)
	if rw.Step != "insert "+repository.TableWorkoutSheetExercises || !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if n := len(env.tables.Rows(repository.TableWorkoutSheetExercises)); n != 0 {
		t.Errorf("%d assignment rows left, want 0", n)
	}
	// The snapshot still shows the last successful fetch.
	sheet, _ := env.workouts.GetByID(id)
	if len(sheet.Exercises) != 2 {
		t.Errorf("snapshot exercises = %d, want 2", len(sheet.Exercises))
	}
}

func TestWorkoutStore_AddAssignmentFailure(t *testing.T) {
	env := newTestEnv(t)
	env.tables.FailOn(memory.OpInsert, repository.TableWorkoutSheetExercises, errors.New("quota"))

	_, err := env.workouts.Add(context.Background(), SheetInput{Name: "Treino A", Exercises: []AssignmentInput{{ExerciseID: "ex001"}}})
	asError[*RemoteWriteError](t, err)
	// The header stays behind.
	if n := len(env.tables.Rows(repository.TableWorkoutSheets)); n != 1 {
		t.Errorf("%d header rows, want 1", n)
	}
	if env.workouts.Snapshot().Loaded {
		t.Error("store refreshed after a failed write")
	}
}

func TestWorkoutStore_Associate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.addStudent(t, "Ana", "a@x.com")
	bruno := env.addStudent(t, "Bruno", "b@x.com")
	sheetA := env.addSheet(t, "Treino A", "ex001")
	sheetB := env.addSheet(t, "Treino B", "ex010")
	if err := env.workouts.Associate(ctx, sheetB, []string{ana}); err != nil {
		t.Fatal(err)
	}

	if err := env.workouts.Associate(ctx, sheetA, []string{bruno, ana, bruno, " "}); err != nil {
		t.Fatalf("Associate: %v", err)
	}
	want := []string{ana, bruno}
	if ana > bruno {
		want = []string{bruno, ana}
	}
	a, _ := env.workouts.GetByID(sheetA)
	if !reflect.DeepEqual(a.AssociatedStudentIDs, want) {
		t.Errorf("sheet A students = %v, want %v", a.AssociatedStudentIDs, want)
	}
	if n := len(env.tables.Rows(repository.TableStudentWorkoutSheets)); n != 3 {
		t.Errorf("%d association rows, want 3", n)
	}

	// Clearing sheet A leaves sheet B alone.
	if err := env.workouts.Associate(ctx, sheetA, nil); err != nil {
		t.Fatal(err)
	}
	a, _ = env.workouts.GetByID(sheetA)
	b, _ := env.workouts.GetByID(sheetB)
	if len(a.AssociatedStudentIDs) != 0 {
		t.Errorf("sheet A students = %v, want none", a.AssociatedStudentIDs)
	}
	if !reflect.DeepEqual(b.AssociatedStudentIDs, []string{ana}) {
		t.Errorf("sheet B students = %v", b.AssociatedStudentIDs)
	}

	sheets := env.workouts.GetByStudentID(ana)
	if len(sheets) != 1 || sheets[0].ID != sheetB {
		t.Errorf("GetByStudentID = %v", sheets)
	}
}

func TestWorkoutStore_AssociateMissingSheet(t *testing.T) {
	env := newTestEnv(t)
	err := env.workouts.Associate(context.Background(), "ghost", []string{"s1"})
	asError[*NotFoundError](t, err)
	if n := len(env.tables.Rows(repository.TableStudentWorkoutSheets)); n != 0 {
		t.Errorf("%d association rows written", n)
	}
}

func TestWorkoutStore_DeleteCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.addStudent(t, "Ana", "a@x.com")
	keep := env.addSheet(t, "Treino B", "ex010")
	drop := env.addSheet(t, "Treino A", "ex001", "ex002")
	if err := env.workouts.Associate(ctx, drop, []string{student}); err != nil {
		t.Fatal(err)
	}

	if err := env.workouts.Delete(ctx, drop); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := env.workouts.GetByID(drop); ok {
		t.Error("deleted sheet still in snapshot")
	}
	if _, ok := env.workouts.GetByID(keep); !ok {
		t.Error("other sheet vanished")
	}
	for _, r := range env.tables.Rows(repository.TableWorkoutSheetExercises) {
		if r["workout_sheet_id"] == drop {
			t.Errorf("orphan assignment %v", r)
		}
	}
	if n := len(env.tables.Rows(repository.TableStudentWorkoutSheets)); n != 0 {
		t.Errorf("%d association rows left", n)
	}

	var deletes []string
	for _, c := range env.tables.Calls() {
		if c.Op == memory.OpDelete {
			deletes = append(deletes, c.Table)
		}
	}
	want := []string{repository.TableWorkoutSheetExercises, repository.TableStudentWorkoutSheets, repository.TableWorkoutSheets}
	if !reflect.DeepEqual(deletes[len(deletes)-3:], want) {
		t.Errorf("delete order = %v", deletes)
	}
}

func TestWorkoutStore_DeleteStopsBeforeHeader(t *testing.T) {
	env := newTestEnv(t)
	id := env.addSheet(t, "Treino A", "ex001")
	env.tables.FailOn(memory.OpDelete, repository.TableStudentWorkoutSheets, errors.New("denied"))

	rw := asError[*RemoteWriteError](t, env.workouts.Delete(context.Background(), id))
	if rw.Step != "remove sheet associations" {
		t.Errorf("step = %q", rw.Step)
	}
	if n := len(env.tables.Rows(repository.TableWorkoutSheets)); n != 1 {
		t.Errorf("header rows = %d, want 1", n)
	}
}

func TestWorkoutStore_FetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addSheet(t, "Treino A", "ex001")
	env.tables.FailOn(memory.OpSelect, repository.TableWorkoutSheets, errors.New("offline"))

	asError[*RemoteReadError](t, env.workouts.FetchAll(context.Background()))
	snap := env.workouts.Snapshot()
	if len(snap.Items) != 0 || snap.Err == nil {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := env.workouts.GetByStudentID("anyone"); len(got) != 0 {
		t.Errorf("GetByStudentID = %v", got)
	}
}

func TestWorkoutStore_SortedByName(t *testing.T) {
	env := newTestEnv(t)
	env.addSheet(t, "treino b", "ex001")
	env.addSheet(t, "Treino A", "ex001")
	env.addSheet(t, "Ábdomen", "ex050")

	var names []string
	for _, s := range env.workouts.Snapshot().Items {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"Ábdomen", "Treino A", "treino b"}) {
		t.Errorf("order = %v", names)
	}
}
