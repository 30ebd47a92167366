package service

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// AssignmentInput is one exercise of a sheet being saved. Its position in
// SheetInput.Exercises becomes its order.
type AssignmentInput struct {
	ExerciseID   string `json:"exerciseId" validate:"required"`
	Sets         string `json:"sets"`
	Reps         string `json:"reps"`
	Load         string `json:"load"`
	Observations string `json:"observations"`
}

// SheetInput is the full content of a sheet: header plus ordered exercises.
type SheetInput struct {
	Name      string            `json:"name" validate:"required"`
	Goal      string            `json:"goal"`
	Exercises []AssignmentInput `json:"exercises" validate:"min=1,dive"`
}

// WorkoutStore owns the workout sheets and the writes that change them.
type WorkoutStore interface {
	FetchAll(ctx context.Context) error
	// Add creates a sheet with no associated students and returns its id.
	Add(ctx context.Context, input SheetInput) (string, error)
	// Update replaces the header and every assignment. Associations are kept.
	Update(ctx context.Context, id string, input SheetInput) error
	// Associate replaces the sheet's set of students.
	Associate(ctx context.Context, sheetID string, studentIDs []string) error
	Delete(ctx context.Context, id string) error
	GetByID(id string) (domain.WorkoutSheet, bool)
	GetByStudentID(studentID string) []domain.WorkoutSheet
	Snapshot() Snapshot[domain.WorkoutSheet]
	Subscribe(fn func(Snapshot[domain.WorkoutSheet])) (unsubscribe func())
	Clear()
}

type workoutStore struct {
	tables repository.Tables
	locale language.Tag
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
	sheets *collection[domain.WorkoutSheet]
}

// NewWorkoutStore creates a WorkoutStore over tables.
func NewWorkoutStore(tables repository.Tables, locale language.Tag, logger zerolog.Logger) WorkoutStore {
	return &workoutStore{
		tables: tables,
		locale: locale,
		logger: logger.With().Str("component", "workout_store").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
		sheets: newCollection[domain.WorkoutSheet](),
	}
}

func (s *workoutStore) FetchAll(ctx context.Context) error {
	rows, err := s.tables.Select(ctx, repository.Query{
		Table:  repository.TableWorkoutSheets,
		Embeds: sheetEmbeds,
	})
	if err != nil {
		return s.fetchFailed(&RemoteReadError{Step: "fetch workout sheets", Err: err})
	}
	records, err := DecodeSheetRecords(rows)
	if err != nil {
		return s.fetchFailed(&RemoteReadError{Step: "decode workout sheets", Err: err})
	}
	s.sheets.replace(DenormalizeSheets(records, s.locale), nil, s.now())
	return nil
}

func (s *workoutStore) fetchFailed(err error) error {
	s.logger.Error().Err(err).Msg("workout sheet refresh failed")
	s.sheets.replace(nil, err, s.now())
	return err
}

func (s *workoutStore) refresh(ctx context.Context) {
	_ = s.FetchAll(ctx)
}

func normalizeSheetInput(input SheetInput) (SheetInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Goal = strings.TrimSpace(input.Goal)
	input.Exercises = append([]AssignmentInput(nil), input.Exercises...)
	for i := range input.Exercises {
		input.Exercises[i].ExerciseID = strings.TrimSpace(input.Exercises[i].ExerciseID)
	}
	if err := validateStruct(input); err != nil {
		return input, err
	}
	return input, nil
}

// assignmentRows numbers the exercises 0..n-1 in list order.
func assignmentRows(exercises []AssignmentInput) []repository.Row {
	rows := make([]repository.Row, 0, len(exercises))
	for i, ex := range exercises {
		rows = append(rows, repository.Row{
			"exercise_id":    ex.ExerciseID,
			"sets":           ex.Sets,
			"reps":           ex.Reps,
			"load_details":   ex.Load,
			"observations":   ex.Observations,
			"exercise_order": i,
		})
	}
	return rows
}

func (s *workoutStore) Add(ctx context.Context, input SheetInput) (string, error) {
	input, err := normalizeSheetInput(input)
	if err != nil {
		return "", err
	}
	id := s.newID()
	log := s.logger.With().Str("sheet_id", id).Logger()

	header := repository.Row{"id": id, "name": input.Name, "goal": input.Goal}
	if err := s.tables.Insert(ctx, repository.TableWorkoutSheets, header); err != nil {
		log.Error().Err(err).Msg("insert sheet failed")
		return "", &RemoteWriteError{Step: "insert sheet", Err: err}
	}

	rows := assignmentRows(input.Exercises)
	for _, r := range rows {
		r["workout_sheet_id"] = id
	}
	if err := s.tables.Insert(ctx, repository.TableWorkoutSheetExercises, rows...); err != nil {
		log.Error().Err(err).Msg("insert sheet exercises failed")
		return "", &RemoteWriteError{Step: "insert " + repository.TableWorkoutSheetExercises, Err: err}
	}

	log.Info().Int("exercises", len(rows)).Msg("sheet added")
	s.refresh(ctx)
	return id, nil
}

func (s *workoutStore) Update(ctx context.Context, id string, input SheetInput) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	input, err := normalizeSheetInput(input)
	if err != nil {
		return err
	}
	log := s.logger.With().Str("sheet_id", id).Logger()

	matched, err := s.tables.Update(ctx, repository.TableWorkoutSheets, repository.Filter{"id": id},
		repository.Row{"name": input.Name, "goal": input.Goal})
	if err != nil {
		log.Error().Err(err).Msg("update sheet failed")
		return &RemoteWriteError{Step: "update sheet", Err: err}
	}
	if matched == 0 {
		return &NotFoundError{Entity: "workout sheet", ID: id}
	}

	if err := replaceChildren(ctx, s.tables, repository.TableWorkoutSheetExercises, "workout_sheet_id", id,
		assignmentRows(input.Exercises)); err != nil {
		log.Error().Err(err).Msg("replace sheet exercises failed")
		return err
	}

	log.Info().Int("exercises", len(input.Exercises)).Msg("sheet updated")
	s.refresh(ctx)
	return nil
}

func (s *workoutStore) Associate(ctx context.Context, sheetID string, studentIDs []string) error {
	if strings.TrimSpace(sheetID) == "" {
		return &ValidationError{Field: "sheetId", Message: "is required"}
	}
	if err := s.requireSheet(ctx, sheetID); err != nil {
		return err
	}

	ids := uniqueIDs(studentIDs)
	rows := make([]repository.Row, 0, len(ids))
	for _, studentID := range ids {
		rows = append(rows, repository.Row{"student_id": studentID})
	}
	if err := replaceChildren(ctx, s.tables, repository.TableStudentWorkoutSheets, "workout_sheet_id", sheetID, rows); err != nil {
		s.logger.Error().Err(err).Str("sheet_id", sheetID).Msg("replace associations failed")
		return err
	}

	s.logger.Info().Str("sheet_id", sheetID).Int("students", len(ids)).Msg("sheet associations replaced")
	s.refresh(ctx)
	return nil
}

// Delete removes assignments and associations before the header so no
// child row is left pointing at a missing sheet.
func (s *workoutStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.requireSheet(ctx, id); err != nil {
		return err
	}
	log := s.logger.With().Str("sheet_id", id).Logger()

	steps := []struct {
		step   string
		table  string
		filter repository.Filter
	}{
		{"remove sheet exercises", repository.TableWorkoutSheetExercises, repository.Filter{"workout_sheet_id": id}},
		{"remove sheet associations", repository.TableStudentWorkoutSheets, repository.Filter{"workout_sheet_id": id}},
		{"remove sheet", repository.TableWorkoutSheets, repository.Filter{"id": id}},
	}
	for _, st := range steps {
		if _, err := s.tables.Delete(ctx, st.table, st.filter); err != nil {
			log.Error().Err(err).Str("step", st.step).Msg("delete sheet failed")
			return &RemoteWriteError{Step: st.step, Err: err}
		}
	}

	log.Info().Msg("sheet deleted")
	s.refresh(ctx)
	return nil
}

func (s *workoutStore) requireSheet(ctx context.Context, id string) error {
	rows, err := s.tables.Select(ctx, repository.Query{
		Table:  repository.TableWorkoutSheets,
		Filter: repository.Filter{"id": id},
	})
	if err != nil {
		return &RemoteReadError{Step: "load workout sheet", Err: err}
	}
	if len(rows) == 0 {
		return &NotFoundError{Entity: "workout sheet", ID: id}
	}
	return nil
}

func (s *workoutStore) GetByID(id string) (domain.WorkoutSheet, bool) {
	return s.sheets.find(func(w domain.WorkoutSheet) bool { return w.ID == id })
}

func (s *workoutStore) GetByStudentID(studentID string) []domain.WorkoutSheet {
	return s.sheets.filter(func(w domain.WorkoutSheet) bool { return w.HasStudent(studentID) })
}

func (s *workoutStore) Snapshot() Snapshot[domain.WorkoutSheet] {
	return s.sheets.snapshot()
}

func (s *workoutStore) Subscribe(fn func(Snapshot[domain.WorkoutSheet])) func() {
	return s.sheets.subscribe(fn)
}

func (s *workoutStore) Clear() {
	s.sheets.reset(s.now())
}

// uniqueIDs drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
