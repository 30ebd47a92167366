package repository

import (
	"alcyxob/gym-console/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Table names of the hosted backend schema.
const (
	TableProfiles              = "profiles"
	TableUserRoles             = "user_roles"
	TableStudents              = "students"
	TableExercises             = "exercises"
	TableWorkoutSheets         = "workout_sheets"
	TableWorkoutSheetExercises = "workout_sheet_exercises"
	TableStudentWorkoutSheets  = "student_workout_sheets"
)

// Row is a single table row keyed by column name. Embedded to-one relations
// hold a Row (or nil), embedded to-many relations hold a []Row.
type Row map[string]any

// Filter matches rows whose columns equal every given value.
type Filter map[string]any

// Embed describes a related table joined into each selected row, the way a
// nested field selection does on the hosted backend.
type Embed struct {
	Table      string  // related table
	As         string  // key the related rows land under; defaults to Table
	LocalKey   string  // column on the parent row
	ForeignKey string  // column on the related row
	Single     bool    // embed one Row (or nil) instead of []Row
	Embeds     []Embed // nested relations of the related table
}

// Key returns the row key the embedded data is stored under.
func (e Embed) Key() string {
	if e.As != "" {
		return e.As
	}
	return e.Table
}

// Query selects rows from Table matching Filter, with Embeds joined in.
type Query struct {
	Table  string
	Filter Filter
	Embeds []Embed
}

// Tables is the table-level capability of the hosted backend.
type Tables interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) error
	// Update applies patch to every matching row and returns how many matched.
	Update(ctx context.Context, table string, filter Filter, patch Row) (int64, error)
	// Upsert inserts rows, merging into existing rows that share conflictKey.
	Upsert(ctx context.Context, table string, conflictKey string, rows ...Row) error
	// Delete removes every matching row and returns how many were removed.
	Delete(ctx context.Context, table string, filter Filter) (int64, error)
}

// CredentialRepository stores the auth provider's email/password identities.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
}
