package services

import (
	"regexp"
	"strings"

	"github.com/emp-registry/apiserver/types"
)

const (
	fieldName         = "name"
	fieldEmail        = "email"
	fieldPassword     = "password"
	fieldNationalID12 = "nationalId12"
	fieldTaxID        = "taxId"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var (
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nationalID12Pattern = regexp.MustCompile(`^\d{12}$`)
	taxIDPattern        = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// EmployeeInput carries the fields of a new employee record.
type EmployeeInput struct {
	Name         string
	Email        string
	Password     string
	NationalID12 string
	TaxID        string
}

// Normalize trims every field except the password and lowercases the email.
func (in EmployeeInput) Normalize() EmployeeInput {
	return EmployeeInput{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Password:     in.Password,
		NationalID12: strings.TrimSpace(in.NationalID12),
		TaxID:        strings.TrimSpace(in.TaxID),
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmployee checks a full record. It returns nil when every field is well formed.
func ValidateEmployee(in EmployeeInput) ValidationErrors {
	var errs ValidationErrors
	errs = appendIf(errs, checkName(in.Name))
	errs = appendIf(errs, checkEmail(in.Email))
	errs = appendIf(errs, checkPassword(in.Password))
	errs = appendIf(errs, checkNationalID12(in.NationalID12))
	errs = appendIf(errs, checkTaxID(in.TaxID))
	return errs
}

// NormalizePatch applies the same normalization as Normalize to the supplied fields.
func NormalizePatch(p types.EmployeePatch) types.EmployeePatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		s := strings.TrimSpace(*v)
		return &s
	}

	out := types.EmployeePatch{
		Name:         trim(p.Name),
		Password:     p.Password,
		NationalID12: trim(p.NationalID12),
		TaxID:        trim(p.TaxID),
	}
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		out.Email = &email
	}
	return out
}

// ValidatePatch checks only the supplied fields, with the same rules as ValidateEmployee.
func ValidatePatch(p types.EmployeePatch) ValidationErrors {
	var errs ValidationErrors
	if p.Name != nil {
		errs = appendIf(errs, checkName(*p.Name))
	}
	if p.Email != nil {
		errs = appendIf(errs, checkEmail(*p.Email))
	}
	if p.Password != nil {
		errs = appendIf(errs, checkPassword(*p.Password))
	}
	if p.NationalID12 != nil {
		errs = appendIf(errs, checkNationalID12(*p.NationalID12))
	}
	if p.TaxID != nil {
		errs = appendIf(errs, checkTaxID(*p.TaxID))
	}
	return errs
}

func appendIf(errs ValidationErrors, fe *FieldError) ValidationErrors {
	if fe == nil {
		return errs
	}
	return append(errs, *fe)
}

func checkName(name string) *FieldError {
	if name == "" {
		return &FieldError{Field: fieldName, Message: "name is required"}
	}
	return nil
}

func checkEmail(email string) *FieldError {
	if email == "" {
		return &FieldError{Field: fieldEmail, Message: "email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &FieldError{Field: fieldEmail, Message: "invalid email format"}
	}
	return nil
}

func checkPassword(password string) *FieldError {
	if password == "" {
		return &FieldError{Field: fieldPassword, Message: "password is required"}
	}
	if len(password) > maxPasswordBytes {
		return &FieldError{Field: fieldPassword, Message: "password must be at most 72 bytes"}
	}
	return nil
}

func checkNationalID12(id string) *FieldError {
	if id == "" {
		return &FieldError{Field: fieldNationalID12, Message: "nationalId12 is required"}
	}
	if !nationalID12Pattern.MatchString(id) {
		return &FieldError{Field: fieldNationalID12, Message: "invalid nationalId12: must be exactly 12 digits"}
	}
	return nil
}

func checkTaxID(id string) *FieldError {
	if id == "" {
		return &FieldError{Field: fieldTaxID, Message: "taxId is required"}
	}
	if !taxIDPattern.MatchString(id) {
		return &FieldError{Field: fieldTaxID, Message: "invalid taxId: expected 5 uppercase letters, 4 digits, 1 uppercase letter"}
	}
	return nil
}
