package service

import (
	"alcyxob/gym-console/internal/domain"
	"context"
	"sort"
	"strings"
)

// SheetsForStudent returns the sheets whose association set contains studentID.
func SheetsForStudent(studentID string, sheets []domain.WorkoutSheet) []domain.WorkoutSheet {
	out := []domain.WorkoutSheet{}
	for _, sheet := range sheets {
		if sheet.HasStudent(studentID) {
			out = append(out, sheet)
		}
	}
	return out
}

// StudentsForSheet returns the roster entries associated with sheet, in roster order.
func StudentsForSheet(sheet domain.WorkoutSheet, students []domain.Student) []domain.Student {
	out := []domain.Student{}
	for _, st := range students {
		if sheet.HasStudent(st.ID) {
			out = append(out, st)
		}
	}
	return out
}

// FilterStudents keeps students whose name contains term, ignoring case, or
// whose CPF contains it. A blank term keeps everyone.
func FilterStudents(students []domain.Student, term string) []domain.Student {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]domain.Student, len(students))
		copy(out, students)
		return out
	}
	lower := strings.ToLower(term)
	out := []domain.Student{}
	for _, st := range students {
		if strings.Contains(strings.ToLower(st.DisplayName), lower) || strings.Contains(st.CPF, term) {
			out = append(out, st)
		}
	}
	return out
}

// Associator persists a sheet's student set.
type Associator interface {
	Associate(ctx context.Context, sheetID string, studentIDs []string) error
}

// Candidate is a student offered in the association picker.
type Candidate struct {
	Student  domain.Student `json:"student"`
	Selected bool           `json:"selected"`
}

// AssociationDraft is the pending selection of students for one sheet.
// Toggling is local; only Save writes. Not safe for concurrent use.
type AssociationDraft struct {
	sheetID   string
	persisted map[string]struct{}
	selected  map[string]struct{}
}

// NewAssociationDraft seeds the selection from the sheet's persisted set.
func NewAssociationDraft(sheet domain.WorkoutSheet) *AssociationDraft {
	d := &AssociationDraft{
		sheetID:   sheet.ID,
		persisted: make(map[string]struct{}, len(sheet.AssociatedStudentIDs)),
		selected:  make(map[string]struct{}, len(sheet.AssociatedStudentIDs)),
	}
	for _, id := range sheet.AssociatedStudentIDs {
		d.persisted[id] = struct{}{}
		d.selected[id] = struct{}{}
	}
	return d
}

// SheetID is the sheet the draft belongs to.
func (d *AssociationDraft) SheetID() string { return d.sheetID }

// Toggle flips studentID's selection and returns the new state.
func (d *AssociationDraft) Toggle(studentID string) bool {
	if _, ok := d.selected[studentID]; ok {
		delete(d.selected, studentID)
		return false
	}
	d.selected[studentID] = struct{}{}
	return true
}

// Set selects exactly ids.
func (d *AssociationDraft) Set(ids []string) {
	d.selected = make(map[string]struct{}, len(ids))
	for _, id := range uniqueIDs(ids) {
		d.selected[id] = struct{}{}
	}
}

func (d *AssociationDraft) IsSelected(studentID string) bool {
	_, ok := d.selected[studentID]
	return ok
}

// Selected returns the pending selection, sorted.
func (d *AssociationDraft) Selected() []string {
	out := make([]string, 0, len(d.selected))
	for id := range d.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Dirty reports whether the selection differs from the persisted set.
func (d *AssociationDraft) Dirty() bool {
	if len(d.selected) != len(d.persisted) {
		return true
	}
	for id := range d.selected {
		if _, ok := d.persisted[id]; !ok {
			return true
		}
	}
	return false
}

// Candidates filters students by term and marks the selected ones.
func (d *AssociationDraft) Candidates(students []domain.Student, term string) []Candidate {
	filtered := FilterStudents(students, term)
	out := make([]Candidate, 0, len(filtered))
	for _, st := range filtered {
		out = append(out, Candidate{Student: st, Selected: d.IsSelected(st.ID)})
	}
	return out
}

// Save writes the selection through a and, on success, makes it the new
// persisted set.
func (d *AssociationDraft) Save(ctx context.Context, a Associator) error {
	ids := d.Selected()
	if err := a.Associate(ctx, d.sheetID, ids); err != nil {
		return err
	}
	d.persisted = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		d.persisted[id] = struct{}{}
	}
	return nil
}
