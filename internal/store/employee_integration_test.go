//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/emp-registry/apiserver/internal/store"
	"github.com/emp-registry/apiserver/internal/testutil"
	"github.com/emp-registry/apiserver/types"
	"github.com/stretchr/testify/suite"
)

type PostgresRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	pg   *testutil.PostgresContainer
	repo *store.EmployeeRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = testutil.NewPostgres(s.T())
	s.repo = store.NewEmployeeRepository(s.pg.DB)
}

func (s *PostgresRepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresRepositorySuite) insert(name, email, nationalID, taxID string) types.Employee {
	employee, err := s.repo.Create(s.ctx, types.Employee{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		NationalID12: nationalID,
		TaxID:        taxID,
	})
	s.Require().NoError(err)
	return employee
}

func (s *PostgresRepositorySuite) TestCreateAndGet() {
	john := s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")

	byID, err := s.repo.GetByID(s.ctx, john.ID)
	s.Require().NoError(err)
	s.Equal(john.Email, byID.Email)
	s.Equal(john.PasswordHash, byID.PasswordHash)
	s.WithinDuration(john.CreatedAt, byID.CreatedAt, time.Millisecond)

	byEmail, err := s.repo.GetByEmail(s.ctx, "john@example.com")
	s.Require().NoError(err)
	s.Equal(john.ID, byEmail.ID)
}

func (s *PostgresRepositorySuite) TestCreateDuplicateEmail() {
	s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")

	_, err := s.repo.Create(s.ctx, types.Employee{
		Name:         "Other",
		Email:        "john@example.com",
		PasswordHash: "$2a$04$hash",
		NationalID12: "123456789013",
		TaxID:        "ABCDE1234G",
	})
	s.ErrorIs(err, store.ErrDuplicateEmail)
}

func (s *PostgresRepositorySuite) TestGetUnknownAndMalformedIDs() {
	_, err := s.repo.GetByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.repo.GetByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresRepositorySuite) TestSearchEscapesWildcards() {
	s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")
	s.insert("Jane_Roe", "jane@example.com", "210987654321", "ZYXWV9876A")

	results, err := s.repo.Search(s.ctx, types.EmployeeFilter{Name: "jo"})
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("John Doe", results[0].Name)

	results, err = s.repo.Search(s.ctx, types.EmployeeFilter{Name: "_"})
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Jane_Roe", results[0].Name)

	results, err = s.repo.Search(s.ctx, types.EmployeeFilter{Email: "EXAMPLE", TaxID: "zyx"})
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *PostgresRepositorySuite) TestUpdateKeepsCreatedAt() {
	john := s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")

	john.Name = "Johnny Doe"
	updated, err := s.repo.Update(s.ctx, john)
	s.Require().NoError(err)
	s.Equal("Johnny Doe", updated.Name)
	s.WithinDuration(john.CreatedAt, updated.CreatedAt, time.Millisecond)
	s.False(updated.UpdatedAt.Before(updated.CreatedAt))
}

func (s *PostgresRepositorySuite) TestUpdateToTakenEmail() {
	john := s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")
	s.insert("Jane Roe", "jane@example.com", "210987654321", "ZYXWV9876A")

	john.Email = "jane@example.com"
	_, err := s.repo.Update(s.ctx, john)
	s.ErrorIs(err, store.ErrDuplicateEmail)
}

func (s *PostgresRepositorySuite) TestDelete() {
	john := s.insert("John Doe", "john@example.com", "123456789012", "ABCDE1234F")

	s.Require().NoError(s.repo.Delete(s.ctx, john.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, john.ID), store.ErrNotFound)

	all, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *PostgresRepositorySuite) TestSchemaRejectsMalformedIdentifiers() {
	_, err := s.repo.Create(s.ctx, types.Employee{
		Name:         "Bad",
		Email:        "bad@example.com",
		PasswordHash: "$2a$04$hash",
		NationalID12: "123",
		TaxID:        "ABCDE1234F",
	})
	s.Error(err)
}

func (s *PostgresRepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}
