package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emp-registry/apiserver/types"
	"github.com/stretchr/testify/suite"
)

type MemoryRepositorySuite struct {
	suite.Suite
	ctx   context.Context
	repo  *MemoryEmployeeRepository
	clock time.Time
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = NewMemoryEmployeeRepository()
	s.clock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.repo.now = func() time.Time {
		s.clock = s.clock.Add(time.Second)
		return s.clock
	}
}

func (s *MemoryRepositorySuite) insert(name, email string) types.Employee {
	employee, err := s.repo.Create(s.ctx, types.Employee{
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
		NationalID12: "123456789012",
		TaxID:        "ABCDE1234F",
	})
	s.Require().NoError(err)
	return employee
}

func (s *MemoryRepositorySuite) TestCreateAssignsIdentityAndTimestamps() {
	employee := s.insert("John Doe", "john@example.com")

	s.NotEmpty(employee.ID)
	s.False(employee.CreatedAt.IsZero())
	s.Equal(employee.CreatedAt, employee.UpdatedAt)

	byEmail, err := s.repo.GetByEmail(s.ctx, "john@example.com")
	s.Require().NoError(err)
	s.Equal(employee, byEmail)
}

func (s *MemoryRepositorySuite) TestCreateRejectsDuplicateEmail() {
	s.insert("John Doe", "john@example.com")

	_, err := s.repo.Create(s.ctx, types.Employee{Name: "Other", Email: "john@example.com"})
	s.ErrorIs(err, ErrDuplicateEmail)
}

func (s *MemoryRepositorySuite) TestConcurrentCreateKeepsEmailUnique() {
	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.Create(s.ctx, types.Employee{Name: "Race", Email: "race@example.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	all, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *MemoryRepositorySuite) TestListOrdersByCreation() {
	first := s.insert("First", "first@example.com")
	second := s.insert("Second", "second@example.com")
	third := s.insert("Third", "third@example.com")

	all, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{first.ID, second.ID, third.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func (s *MemoryRepositorySuite) TestUpdateMovesEmailIndex() {
	john := s.insert("John Doe", "john@example.com")

	john.Email = "johnny@example.com"
	updated, err := s.repo.Update(s.ctx, john)
	s.Require().NoError(err)
	s.True(updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.repo.GetByEmail(s.ctx, "john@example.com")
	s.ErrorIs(err, ErrNotFound)
	found, err := s.repo.GetByEmail(s.ctx, "johnny@example.com")
	s.Require().NoError(err)
	s.Equal(john.ID, found.ID)
}

func (s *MemoryRepositorySuite) TestUpdateRejectsTakenEmail() {
	john := s.insert("John Doe", "john@example.com")
	s.insert("Jane Roe", "jane@example.com")

	john.Email = "jane@example.com"
	_, err := s.repo.Update(s.ctx, john)
	s.ErrorIs(err, ErrDuplicateEmail)
}

func (s *MemoryRepositorySuite) TestUpdateUnknown() {
	_, err := s.repo.Update(s.ctx, types.Employee{ID: "missing", Email: "x@example.com"})
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryRepositorySuite) TestDeleteFreesEmail() {
	john := s.insert("John Doe", "john@example.com")

	s.Require().NoError(s.repo.Delete(s.ctx, john.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, john.ID), ErrNotFound)

	_, err := s.repo.GetByID(s.ctx, john.ID)
	s.ErrorIs(err, ErrNotFound)

	s.insert("John Again", "john@example.com")
}

func (s *MemoryRepositorySuite) TestSearchCombinesFilters() {
	s.insert("John Doe", "john@example.com")
	s.insert("Jane Doe", "jane@corp.example")

	results, err := s.repo.Search(s.ctx, types.EmployeeFilter{Name: "DOE", Email: "corp"})
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Jane Doe", results[0].Name)
}
