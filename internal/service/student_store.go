package service

import (
	"alcyxob/gym-console/internal/auth"
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// AddStudentInput carries everything needed to create a student account.
// An empty CurrentPlanID selects the catalog's default plan.
type AddStudentInput struct {
	Email         string              `json:"email" validate:"required,email"`
	Password      string              `json:"password" validate:"required,min=6"`
	DisplayName   string              `json:"displayName" validate:"required"`
	CPF           string              `json:"cpf" validate:"required"`
	Phone         string              `json:"phone"`
	BirthDate     *time.Time          `json:"birthDate"`
	CurrentPlanID string              `json:"currentPlanId"`
	Observations  string              `json:"observations"`
	Photo         *domain.PhotoUpload `json:"-"`
}

// StudentPatch lists the fields to change; nil fields are left alone.
// PlanExpiryDate only applies when the plan itself does not change.
type StudentPatch struct {
	DisplayName    *string               `json:"displayName" validate:"omitnil,min=1"`
	CPF            *string               `json:"cpf" validate:"omitnil,min=1"`
	Phone          *string               `json:"phone"`
	BirthDate      *time.Time            `json:"birthDate"`
	CurrentPlanID  *string               `json:"currentPlanId"`
	PlanExpiryDate *time.Time            `json:"planExpiryDate"`
	PaymentStatus  *domain.PaymentStatus `json:"paymentStatus" validate:"omitnil,oneof=paid warning due"`
	Observations   *string               `json:"observations"`
	ClearPhoto     bool                  `json:"clearPhoto"`
	Photo          *domain.PhotoUpload   `json:"-"`
}

// StudentStore owns the roster and the writes that change it.
type StudentStore interface {
	FetchAll(ctx context.Context) error
	// Add creates identity, profile and student rows, returning the new id.
	Add(ctx context.Context, input AddStudentInput) (string, error)
	Update(ctx context.Context, id string, patch StudentPatch) error
	Delete(ctx context.Context, id string) error
	GetByID(id string) (domain.Student, bool)
	Snapshot() Snapshot[domain.Student]
	Subscribe(fn func(Snapshot[domain.Student])) (unsubscribe func())
	// Clear drops the roster, e.g. after sign-out.
	Clear()
}

// studentStore implements StudentStore. Multi-step writes are not rolled
// back: a failure leaves earlier steps applied and skips the refresh.
type studentStore struct {
	backend Backend
	plans   *domain.PlanCatalog
	locale  language.Tag
	logger  zerolog.Logger
	now     func() time.Time
	roster  *collection[domain.Student]
}

// NewStudentStore creates a StudentStore over backend.
func NewStudentStore(backend Backend, plans *domain.PlanCatalog, locale language.Tag, logger zerolog.Logger) StudentStore {
	return &studentStore{
		backend: backend,
		plans:   plans,
		locale:  locale,
		logger:  logger.With().Str("component", "student_store").Logger(),
		now:     time.Now,
		roster:  newCollection[domain.Student](),
	}
}

// FetchAll reloads the roster. On failure the roster becomes empty and the
// error is kept in the snapshot.
func (s *studentStore) FetchAll(ctx context.Context) error {
	rows, err := s.backend.Tables.Select(ctx, repository.Query{
		Table:  repository.TableStudents,
		Embeds: []repository.Embed{studentProfileEmbed},
	})
	if err != nil {
		return s.fetchFailed(&RemoteReadError{Step: "fetch students", Err: err})
	}
	records, err := DecodeStudentRecords(rows)
	if err != nil {
		return s.fetchFailed(&RemoteReadError{Step: "decode students", Err: err})
	}
	s.roster.replace(DenormalizeStudents(records, s.backend.avatarURL, s.locale), nil, s.now())
	return nil
}

func (s *studentStore) fetchFailed(err error) error {
	s.logger.Error().Err(err).Msg("roster refresh failed")
	s.roster.replace(nil, err, s.now())
	return err
}

// refresh runs after a successful write. Its failure is recorded in the
// snapshot, not returned, since the write itself went through.
func (s *studentStore) refresh(ctx context.Context) {
	_ = s.FetchAll(ctx)
}

func (s *studentStore) Add(ctx context.Context, input AddStudentInput) (string, error) {
	// 1. Validate before touching the backend
	input.Email = strings.TrimSpace(input.Email)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.CPF = strings.TrimSpace(input.CPF)
	if err := validateStruct(input); err != nil {
		return "", err
	}
	plan := s.plans.Default()
	if input.CurrentPlanID != "" {
		p, ok := s.plans.Lookup(input.CurrentPlanID)
		if !ok {
			return "", &ValidationError{Field: "currentPlanId", Message: "unknown plan " + input.CurrentPlanID}
		}
		plan = p
	}

	// 2. Create the identity
	identity, err := s.backend.Auth.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		if isAlreadyRegistered(err) {
			return "", &DuplicateIdentityError{Email: input.Email}
		}
		if errors.Is(err, auth.ErrWeakPassword) {
			return "", &ValidationError{Field: "password", Message: err.Error()}
		}
		s.logger.Error().Err(err).Str("email", input.Email).Msg("create identity failed")
		return "", &RemoteWriteError{Step: "create identity", Err: err}
	}
	log := s.logger.With().Str("student_id", identity.ID).Logger()

	// 3. Resolve the student role
	roleID, err := s.studentRoleID(ctx)
	if err != nil {
		log.Error().Err(err).Msg("resolve student role failed")
		return "", err
	}

	// 4. Upload the photo; failure degrades to no photo
	var avatarPath any
	if input.Photo != nil {
		if key, ok := s.uploadPhoto(ctx, identity.ID, input.Photo, log); ok {
			avatarPath = key
		}
	}

	// 5. Upsert the profile
	profile := repository.Row{
		"id":          identity.ID,
		"full_name":   input.DisplayName,
		"avatar_path": avatarPath,
		"role_id":     roleID,
	}
	if err := s.backend.Tables.Upsert(ctx, repository.TableProfiles, "id", profile); err != nil {
		log.Error().Err(err).Msg("upsert profile failed")
		return "", &RemoteWriteError{Step: "upsert profile", Err: err}
	}

	// 6. Insert the student attributes
	student := repository.Row{
		"id":               identity.ID,
		"cpf":              input.CPF,
		"phone":            input.Phone,
		"birth_date":       timeOrNil(input.BirthDate),
		"current_plan_id":  plan.ID,
		"plan_expiry_date": plan.ExpiryFrom(s.now()).UTC(),
		"payment_status":   string(domain.PaymentPaid),
		"observations":     input.Observations,
	}
	if err := s.backend.Tables.Insert(ctx, repository.TableStudents, student); err != nil {
		log.Error().Err(err).Msg("insert student failed")
		return "", &RemoteWriteError{Step: "insert student", Err: err}
	}

	log.Info().Str("plan", plan.ID).Msg("student added")
	s.refresh(ctx)
	return identity.ID, nil
}

// isAlreadyRegistered recognizes duplicate-email failures, including
// providers that only report them in the message text.
func isAlreadyRegistered(err error) bool {
	if errors.Is(err, auth.ErrAlreadyRegistered) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already registered") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "already been registered")
}

func (s *studentStore) studentRoleID(ctx context.Context) (any, error) {
	rows, err := s.backend.Tables.Select(ctx, repository.Query{
		Table:  repository.TableUserRoles,
		Filter: repository.Filter{"role_name": domain.RoleStudent},
	})
	if err != nil {
		return nil, &RemoteReadError{Step: "resolve student role", Err: err}
	}
	if len(rows) == 0 || rows[0]["id"] == nil {
		return nil, &NotFoundError{Entity: "role", ID: domain.RoleStudent}
	}
	return rows[0]["id"], nil
}

func (s *studentStore) uploadPhoto(ctx context.Context, id string, photo *domain.PhotoUpload, log zerolog.Logger) (string, bool) {
	key := avatarKey(id, photo.Extension())
	if err := s.backend.Storage.Upload(ctx, s.backend.AvatarsBucket, key, photo.Body, photo.ContentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("photo upload failed, continuing without photo")
		return "", false
	}
	return key, true
}

func (s *studentStore) Update(ctx context.Context, id string, patch StudentPatch) error {
	// 1. Validate
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	patch.DisplayName = trimmedPtr(patch.DisplayName)
	patch.CPF = trimmedPtr(patch.CPF)
	if err := validateStruct(patch); err != nil {
		return err
	}
	var newPlan *domain.Plan
	if patch.CurrentPlanID != nil {
		p, ok := s.plans.Lookup(*patch.CurrentPlanID)
		if !ok {
			return &ValidationError{Field: "currentPlanId", Message: "unknown plan " + *patch.CurrentPlanID}
		}
		newPlan = &p
	}

	// 2. Load the currently held state
	current, err := s.loadRecord(ctx, id)
	if err != nil {
		return err
	}
	log := s.logger.With().Str("student_id", id).Logger()

	// 3. Photo
	profilePatch := repository.Row{}
	if patch.Photo != nil {
		if key, ok := s.uploadPhoto(ctx, id, patch.Photo, log); ok {
			profilePatch["avatar_path"] = key
		}
	} else if patch.ClearPhoto {
		profilePatch["avatar_path"] = nil
		if current.Profile != nil {
			s.removePhoto(ctx, current.Profile.AvatarPath, log)
		}
	}
	if patch.DisplayName != nil {
		profilePatch["full_name"] = *patch.DisplayName
	}

	// 4. Profile fields
	if len(profilePatch) > 0 {
		if _, err := s.backend.Tables.Update(ctx, repository.TableProfiles, repository.Filter{"id": id}, profilePatch); err != nil {
			log.Error().Err(err).Msg("update profile failed")
			return &RemoteWriteError{Step: "update profile", Err: err}
		}
	}

	// 5. Student attributes
	studentPatch := repository.Row{}
	if patch.CPF != nil {
		studentPatch["cpf"] = *patch.CPF
	}
	if patch.Phone != nil {
		studentPatch["phone"] = *patch.Phone
	}
	if patch.BirthDate != nil {
		studentPatch["birth_date"] = patch.BirthDate.UTC()
	}
	if patch.Observations != nil {
		studentPatch["observations"] = *patch.Observations
	}
	if patch.PaymentStatus != nil {
		studentPatch["payment_status"] = string(*patch.PaymentStatus)
	}
	if newPlan != nil && newPlan.ID != current.CurrentPlanID {
		studentPatch["current_plan_id"] = newPlan.ID
		studentPatch["plan_expiry_date"] = newPlan.ExpiryFrom(s.now()).UTC()
	} else if patch.PlanExpiryDate != nil {
		studentPatch["plan_expiry_date"] = patch.PlanExpiryDate.UTC()
	}
	if len(studentPatch) > 0 {
		if _, err := s.backend.Tables.Update(ctx, repository.TableStudents, repository.Filter{"id": id}, studentPatch); err != nil {
			log.Error().Err(err).Msg("update student failed")
			return &RemoteWriteError{Step: "update student", Err: err}
		}
	}

	log.Info().Msg("student updated")
	s.refresh(ctx)
	return nil
}

// Delete removes the photo, associations, student row and profile row in
// that order. Only the photo removal is best-effort.
func (s *studentStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	current, err := s.loadRecord(ctx, id)
	if err != nil {
		return err
	}
	log := s.logger.With().Str("student_id", id).Logger()

	if current.Profile != nil {
		s.removePhoto(ctx, current.Profile.AvatarPath, log)
	}

	steps := []struct {
		step   string
		table  string
		filter repository.Filter
	}{
		{"remove associations", repository.TableStudentWorkoutSheets, repository.Filter{"student_id": id}},
		{"remove student", repository.TableStudents, repository.Filter{"id": id}},
		{"remove profile", repository.TableProfiles, repository.Filter{"id": id}},
	}
	for _, st := range steps {
		if _, err := s.backend.Tables.Delete(ctx, st.table, st.filter); err != nil {
			log.Error().Err(err).Str("step", st.step).Msg("delete student failed")
			return &RemoteWriteError{Step: st.step, Err: err}
		}
	}

	log.Info().Msg("student deleted")
	s.refresh(ctx)
	return nil
}

// removePhoto deletes a stored avatar. External URLs are left alone.
func (s *studentStore) removePhoto(ctx context.Context, path string, log zerolog.Logger) {
	if path == "" || isAbsoluteURL(path) {
		return
	}
	if err := s.backend.Storage.Remove(ctx, s.backend.AvatarsBucket, path); err != nil {
		log.Warn().Err(err).Str("key", path).Msg("photo removal failed")
	}
}

// loadRecord reads the student's current row and profile from the backend.
func (s *studentStore) loadRecord(ctx context.Context, id string) (StudentRecord, error) {
	rows, err := s.backend.Tables.Select(ctx, repository.Query{
		Table:  repository.TableStudents,
		Filter: repository.Filter{"id": id},
		Embeds: []repository.Embed{studentProfileEmbed},
	})
	if err != nil {
		return StudentRecord{}, &RemoteReadError{Step: "load student", Err: err}
	}
	if len(rows) == 0 {
		return StudentRecord{}, &NotFoundError{Entity: "student", ID: id}
	}
	records, err := DecodeStudentRecords(rows[:1])
	if err != nil {
		return StudentRecord{}, &RemoteReadError{Step: "decode student", Err: err}
	}
	return records[0], nil
}

func (s *studentStore) GetByID(id string) (domain.Student, bool) {
	return s.roster.find(func(st domain.Student) bool { return st.ID == id })
}

func (s *studentStore) Snapshot() Snapshot[domain.Student] {
	return s.roster.snapshot()
}

func (s *studentStore) Subscribe(fn func(Snapshot[domain.Student])) func() {
	return s.roster.subscribe(fn)
}

func (s *studentStore) Clear() {
	s.roster.reset(s.now())
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
