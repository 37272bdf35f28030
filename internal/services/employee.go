package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emp-registry/apiserver/internal/logging"
	"github.com/emp-registry/apiserver/internal/metrics"
	"github.com/emp-registry/apiserver/internal/store"
	"github.com/emp-registry/apiserver/types"
)

// EmployeeRepository defines persistence operations for employees.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (types.Employee, error)
	GetByEmail(ctx context.Context, email string) (types.Employee, error)
	List(ctx context.Context) ([]types.Employee, error)
	Search(ctx context.Context, filter types.EmployeeFilter) ([]types.Employee, error)
	Create(ctx context.Context, employee types.Employee) (types.Employee, error)
	Update(ctx context.Context, employee types.Employee) (types.Employee, error)
	Delete(ctx context.Context, id string) error
}

// EmployeeService encapsulates the employee directory use-cases.
type EmployeeService struct {
	repo            EmployeeRepository
	hasher          *PasswordHasher
	defaultPassword string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type EmployeeOption func(s *EmployeeService)

// WithDefaultPassword sets the password Create falls back to when none is supplied.
func WithDefaultPassword(password string) EmployeeOption {
	return func(s *EmployeeService) {
		s.defaultPassword = password
	}
}

func WithEmployeeLogger(logger *slog.Logger) EmployeeOption {
	return func(s *EmployeeService) {
		s.logger = logger
	}
}

func WithEmployeeMetrics(m *metrics.Metrics) EmployeeOption {
	return func(s *EmployeeService) {
		s.metrics = m
	}
}

func NewEmployeeService(repo EmployeeRepository, hasher *PasswordHasher, opts ...EmployeeOption) *EmployeeService {
	s := &EmployeeService{
		repo:   repo,
		hasher: hasher,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmployeeService) List(ctx context.Context) ([]types.Employee, error) {
	return s.repo.List(ctx)
}

func (s *EmployeeService) Get(ctx context.Context, id string) (types.Employee, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EmployeeService) Search(ctx context.Context, filter types.EmployeeFilter) ([]types.Employee, error) {
	return s.repo.Search(ctx, filter)
}

// Create stores a new employee without requiring a session. An omitted
// password falls back to the configured default when one is set.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (types.Employee, error) {
	in = in.Normalize()

	usedDefault := false
	if in.Password == "" && s.defaultPassword != "" {
		in.Password = s.defaultPassword
		usedDefault = true
	}

	if errs := ValidateEmployee(in); errs != nil {
		return types.Employee{}, errs
	}

	employee, err := insertEmployee(ctx, s.repo, s.hasher, in)
	if err != nil {
		return types.Employee{}, err
	}

	s.metrics.IncrementEmployeesCreated()
	if usedDefault {
		s.logger.WarnContext(ctx, "employee created with default password", slog.String("employee_id", employee.ID))
	} else {
		s.logger.InfoContext(ctx, "employee created", slog.String("employee_id", employee.ID))
	}
	return employee, nil
}

// Update applies the supplied fields to an existing employee. Every supplied
// field is validated before anything is written.
func (s *EmployeeService) Update(ctx context.Context, id string, patch types.EmployeePatch) (types.Employee, error) {
	patch = NormalizePatch(patch)
	if errs := ValidatePatch(patch); errs != nil {
		return types.Employee{}, errs
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Employee{}, err
	}
	if patch.Empty() {
		return existing, nil
	}

	updated := existing
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Email != nil && *patch.Email != existing.Email {
		if other, err := s.repo.GetByEmail(ctx, *patch.Email); err == nil && other.ID != existing.ID {
			return types.Employee{}, store.ErrDuplicateEmail
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return types.Employee{}, fmt.Errorf("check email: %w", err)
		}
		updated.Email = *patch.Email
	}
	if patch.NationalID12 != nil {
		updated.NationalID12 = *patch.NationalID12
	}
	if patch.TaxID != nil {
		updated.TaxID = *patch.TaxID
	}
	if patch.Password != nil {
		hashed, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return types.Employee{}, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = hashed
	}

	result, err := s.repo.Update(ctx, updated)
	if err != nil {
		return types.Employee{}, err
	}

	s.logger.InfoContext(ctx, "employee updated", slog.String("employee_id", id))
	return result, nil
}

// Delete removes an employee permanently.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.IncrementEmployeesDeleted()
	s.logger.InfoContext(ctx, "employee deleted", slog.String("employee_id", id))
	return nil
}
