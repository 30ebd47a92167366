package service

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const missingNamePlaceholder = "Nome não encontrado"

// ProfileRecord is a profiles row, optionally joined with its role.
type ProfileRecord struct {
	ID         string      `mapstructure:"id"`
	FullName   string      `mapstructure:"full_name"`
	AvatarPath string      `mapstructure:"avatar_path"`
	RoleID     any         `mapstructure:"role_id"`
	Role       *RoleRecord `mapstructure:"user_roles"`
}

// RoleRecord is a user_roles row.
type RoleRecord struct {
	ID       any    `mapstructure:"id"`
	RoleName string `mapstructure:"role_name"`
}

// StudentRecord is a students row joined with its profile.
type StudentRecord struct {
	ID             string         `mapstructure:"id"`
	CPF            string         `mapstructure:"cpf"`
	Phone          string         `mapstructure:"phone"`
	BirthDate      *time.Time     `mapstructure:"birth_date"`
	CurrentPlanID  string         `mapstructure:"current_plan_id"`
	PlanExpiryDate *time.Time     `mapstructure:"plan_expiry_date"`
	PaymentStatus  string         `mapstructure:"payment_status"`
	Observations   string         `mapstructure:"observations"`
	Profile        *ProfileRecord `mapstructure:"profiles"`
}

// ExerciseRecord is an exercises row.
type ExerciseRecord struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	MuscleGroup string `mapstructure:"muscle_group"`
}

// AssignmentRecord is a workout_sheet_exercises row joined with its exercise.
type AssignmentRecord struct {
	ExerciseID   string          `mapstructure:"exercise_id"`
	Sets         string          `mapstructure:"sets"`
	Reps         string          `mapstructure:"reps"`
	LoadDetails  string          `mapstructure:"load_details"`
	Observations string          `mapstructure:"observations"`
	Order        int             `mapstructure:"exercise_order"`
	Exercise     *ExerciseRecord `mapstructure:"exercises"`
}

// AssociationRecord is a student_workout_sheets row.
type AssociationRecord struct {
	WorkoutSheetID string `mapstructure:"workout_sheet_id"`
	StudentID      string `mapstructure:"student_id"`
}

// SheetRecord is a workout_sheets row joined with its assignments and associations.
type SheetRecord struct {
	ID           string              `mapstructure:"id"`
	Name         string              `mapstructure:"name"`
	Goal         string              `mapstructure:"goal"`
	Assignments  []AssignmentRecord  `mapstructure:"workout_sheet_exercises"`
	Associations []AssociationRecord `mapstructure:"student_workout_sheets"`
}

// Nested selections used by the stores.
var (
	studentProfileEmbed = repository.Embed{
		Table: repository.TableProfiles, LocalKey: "id", ForeignKey: "id", Single: true,
	}
	profileRoleEmbed = repository.Embed{
		Table: repository.TableUserRoles, LocalKey: "role_id", ForeignKey: "id", Single: true,
	}
	sheetEmbeds = []repository.Embed{
		{
			Table: repository.TableWorkoutSheetExercises, LocalKey: "id", ForeignKey: "workout_sheet_id",
			Embeds: []repository.Embed{{
				Table: repository.TableExercises, LocalKey: "exercise_id", ForeignKey: "id", Single: true,
			}},
		},
		{Table: repository.TableStudentWorkoutSheets, LocalKey: "id", ForeignKey: "workout_sheet_id"},
	}
)

// stringToTimeHook accepts RFC 3339 timestamps and plain dates. Blank strings
// decode to the zero time, which utcPtr drops.
func stringToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// decodeRows decodes backend rows into typed records. Numeric columns are
// accepted where strings are expected.
func decodeRows[T any](rows []repository.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.DecodeHookFuncType(stringToTimeHook),
			WeaklyTypedInput: true,
			Result:           &rec,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(map[string]any(row)); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeStudentRecords decodes joined students rows.
func DecodeStudentRecords(rows []repository.Row) ([]StudentRecord, error) {
	return decodeRows[StudentRecord](rows)
}

// DecodeSheetRecords decodes joined workout_sheets rows.
func DecodeSheetRecords(rows []repository.Row) ([]SheetRecord, error) {
	return decodeRows[SheetRecord](rows)
}

// DenormalizeStudents flattens joined records into roster entries sorted by
// display name. resolve turns a stored avatar path into a URL.
func DenormalizeStudents(records []StudentRecord, resolve func(path string) string, locale language.Tag) []domain.Student {
	students := make([]domain.Student, 0, len(records))
	for _, r := range records {
		s := domain.Student{
			ID:             r.ID,
			DisplayName:    missingNamePlaceholder,
			CPF:            r.CPF,
			Phone:          r.Phone,
			BirthDate:      utcPtr(r.BirthDate),
			CurrentPlanID:  r.CurrentPlanID,
			PlanExpiryDate: utcPtr(r.PlanExpiryDate),
			PaymentStatus:  domain.PaymentStatus(r.PaymentStatus),
			Observations:   r.Observations,
			PhotoURL:       PlaceholderPhotoURL(r.ID),
		}
		if r.Profile != nil {
			if name := strings.TrimSpace(r.Profile.FullName); name != "" {
				s.DisplayName = name
			}
			if r.Profile.AvatarPath != "" {
				s.PhotoURL = resolve(r.Profile.AvatarPath)
			}
		}
		students = append(students, s)
	}
	sortByName(students, locale,
		func(s domain.Student) string { return s.DisplayName },
		func(s domain.Student) string { return s.ID })
	return students
}

// DenormalizeSheets flattens joined records into sheets sorted by name, with
// assignments in stored order and association ids sorted and unique.
func DenormalizeSheets(records []SheetRecord, locale language.Tag) []domain.WorkoutSheet {
	sheets := make([]domain.WorkoutSheet, 0, len(records))
	for _, r := range records {
		assignments := make([]AssignmentRecord, len(r.Assignments))
		copy(assignments, r.Assignments)
		sort.SliceStable(assignments, func(i, j int) bool { return assignments[i].Order < assignments[j].Order })

		exercises := make([]domain.ExerciseAssignment, 0, len(assignments))
		for _, a := range assignments {
			ex := domain.ExerciseAssignment{
				ExerciseID:   a.ExerciseID,
				Name:         a.ExerciseID,
				Sets:         a.Sets,
				Reps:         a.Reps,
				Load:         a.LoadDetails,
				Observations: a.Observations,
				Order:        a.Order,
			}
			if a.Exercise != nil {
				ex.Name = a.Exercise.Name
				ex.MuscleGroup = a.Exercise.MuscleGroup
			}
			exercises = append(exercises, ex)
		}

		seen := make(map[string]struct{}, len(r.Associations))
		ids := make([]string, 0, len(r.Associations))
		for _, assoc := range r.Associations {
			if _, dup := seen[assoc.StudentID]; dup || assoc.StudentID == "" {
				continue
			}
			seen[assoc.StudentID] = struct{}{}
			ids = append(ids, assoc.StudentID)
		}
		sort.Strings(ids)

		sheets = append(sheets, domain.WorkoutSheet{
			ID:                   r.ID,
			Name:                 r.Name,
			Goal:                 r.Goal,
			Exercises:            exercises,
			AssociatedStudentIDs: ids,
		})
	}
	sortByName(sheets, locale,
		func(s domain.WorkoutSheet) string { return s.Name },
		func(s domain.WorkoutSheet) string { return s.ID })
	return sheets
}

// sortByName orders items by locale-aware name comparison, breaking ties by id.
// A Collator is not safe for concurrent use, so each call builds its own.
func sortByName[T any](items []T, locale language.Tag, name, id func(T) string) {
	col := collate.New(locale)
	sort.SliceStable(items, func(i, j int) bool {
		if c := col.CompareString(name(items[i]), name(items[j])); c != 0 {
			return c < 0
		}
		return id(items[i]) < id(items[j])
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
