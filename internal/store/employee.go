package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/emp-registry/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode       = "23505"
	invalidTextRepresentation = "22P02"
	emailUniqueConstraint     = "employees_email_key"
)

const employeeColumns = `id, name, email, password_hash, national_id12, tax_id, created_at, updated_at`

// EmployeeRepository handles persistence for employees.
type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (types.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	employee, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Employee{}, translateError(err)
	}
	return employee, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (types.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`
	employee, err := scanEmployee(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return types.Employee{}, translateError(err)
	}
	return employee, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]types.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at, id`
	return r.queryEmployees(ctx, query)
}

// Search matches each supplied filter field as a case-insensitive substring.
func (r *EmployeeRepository) Search(ctx context.Context, filter types.EmployeeFilter) ([]types.Employee, error) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+escapeLike(value)+"%")
		conditions = append(conditions, column+" ILIKE $"+strconv.Itoa(len(args)))
	}
	add("name", filter.Name)
	add("email", filter.Email)
	add("national_id12", filter.NationalID12)
	add("tax_id", filter.TaxID)

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at, id`

	return r.queryEmployees(ctx, query, args...)
}

// Create inserts a new employee. The unique index on email makes the
// duplicate check and the insert a single atomic step.
func (r *EmployeeRepository) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	now := time.Now().UTC()
	employee.ID = uuid.NewString()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	const query = `
		INSERT INTO employees (id, name, email, password_hash, national_id12, tax_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.NationalID12,
		employee.TaxID,
		employee.CreatedAt,
		employee.UpdatedAt,
	); err != nil {
		return types.Employee{}, translateError(err)
	}
	return employee, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, employee types.Employee) (types.Employee, error) {
	employee.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE employees
		SET name = $1,
			email = $2,
			password_hash = $3,
			national_id12 = $4,
			tax_id = $5,
			updated_at = $6
		WHERE id = $7
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.NationalID12,
		employee.TaxID,
		employee.UpdatedAt,
		employee.ID,
	).Scan(&employee.CreatedAt)
	if err != nil {
		return types.Employee{}, translateError(err)
	}
	return employee, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM employees WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *EmployeeRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *EmployeeRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]types.Employee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]types.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (types.Employee, error) {
	var employee types.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.PasswordHash,
		&employee.NationalID12,
		&employee.TaxID,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return types.Employee{}, err
	}
	return employee, nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolationCode:
			if pqErr.Constraint == emailUniqueConstraint {
				return ErrDuplicateEmail
			}
		case invalidTextRepresentation:
			// a non-uuid id can never match a row
			return ErrNotFound
		}
	}
	return err
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
