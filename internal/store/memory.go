package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emp-registry/apiserver/types"
	"github.com/google/uuid"
)

// MemoryEmployeeRepository keeps employees in process memory.
// It honours the same contract as EmployeeRepository, including email uniqueness.
type MemoryEmployeeRepository struct {
	mu      sync.RWMutex
	byID    map[string]types.Employee
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{
		byID:    make(map[string]types.Employee),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryEmployeeRepository) GetByID(_ context.Context, id string) (types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employee, ok := r.byID[id]
	if !ok {
		return types.Employee{}, ErrNotFound
	}
	return employee, nil
}

func (r *MemoryEmployeeRepository) GetByEmail(_ context.Context, email string) (types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return types.Employee{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryEmployeeRepository) List(_ context.Context) ([]types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(types.Employee) bool { return true }), nil
}

func (r *MemoryEmployeeRepository) Search(_ context.Context, filter types.EmployeeFilter) ([]types.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(e types.Employee) bool {
		return containsFold(e.Name, filter.Name) &&
			containsFold(e.Email, filter.Email) &&
			containsFold(e.NationalID12, filter.NationalID12) &&
			containsFold(e.TaxID, filter.TaxID)
	}), nil
}

func (r *MemoryEmployeeRepository) Create(_ context.Context, employee types.Employee) (types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[employee.Email]; exists {
		return types.Employee{}, ErrDuplicateEmail
	}

	now := r.now()
	employee.ID = uuid.NewString()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	r.byID[employee.ID] = employee
	r.byEmail[employee.Email] = employee.ID
	return employee, nil
}

func (r *MemoryEmployeeRepository) Update(_ context.Context, employee types.Employee) (types.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[employee.ID]
	if !ok {
		return types.Employee{}, ErrNotFound
	}
	if owner, taken := r.byEmail[employee.Email]; taken && owner != employee.ID {
		return types.Employee{}, ErrDuplicateEmail
	}

	employee.CreatedAt = existing.CreatedAt
	employee.UpdatedAt = r.now()

	delete(r.byEmail, existing.Email)
	r.byEmail[employee.Email] = employee.ID
	r.byID[employee.ID] = employee
	return employee, nil
}

func (r *MemoryEmployeeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, existing.Email)
	delete(r.byID, id)
	return nil
}

// Ping always succeeds; there is no connection to lose.
func (r *MemoryEmployeeRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryEmployeeRepository) sorted(keep func(types.Employee) bool) []types.Employee {
	employees := make([]types.Employee, 0, len(r.byID))
	for _, employee := range r.byID {
		if keep(employee) {
			employees = append(employees, employee)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].CreatedAt.Equal(employees[j].CreatedAt) {
			return employees[i].ID < employees[j].ID
		}
		return employees[i].CreatedAt.Before(employees[j].CreatedAt)
	})
	return employees
}

func containsFold(value, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}
