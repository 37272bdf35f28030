package types

import "time"

// Employee represents a registered employee record.
// It carries identity, credential and government identifier fields.
type Employee struct {
	// ID is the unique identifier assigned by the store on creation.
	ID string `json:"id" db:"id"`

	// Name is the employee's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the employee's lowercase login address. Unique across all records.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the employee's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// NationalID12 is the 12 digit national identity number.
	NationalID12 string `json:"nationalId12" db:"national_id12"`

	// TaxID is the 10 character tax code (five letters, four digits, one letter).
	TaxID string `json:"taxId" db:"tax_id"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// EmployeePatch holds the fields supplied to a partial update.
// A nil field was not supplied and keeps its stored value.
type EmployeePatch struct {
	Name         *string
	Email        *string
	Password     *string
	NationalID12 *string
	TaxID        *string
}

// Empty reports whether no field was supplied.
func (p EmployeePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.NationalID12 == nil && p.TaxID == nil
}

// EmployeeFilter narrows a directory search. Empty fields are not constrained;
// supplied fields are matched as case-insensitive substrings and combined with AND.
type EmployeeFilter struct {
	Name         string
	Email        string
	NationalID12 string
	TaxID        string
}
