package handlers

import (
	"time"

	"github.com/emp-registry/apiserver/internal/services"
	"github.com/emp-registry/apiserver/types"
)

// EmployeeRequest is the payload of register and the create variants.
type EmployeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	NationalID12 string `json:"nationalId12"`
	TaxID        string `json:"taxId"`
}

func (req EmployeeRequest) input() services.EmployeeInput {
	return services.EmployeeInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		NationalID12: req.NationalID12,
		TaxID:        req.TaxID,
	}
}

// UpdateEmployeeRequest is a partial update; absent fields are left unchanged.
type UpdateEmployeeRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	NationalID12 *string `json:"nationalId12"`
	TaxID        *string `json:"taxId"`
}

func (req UpdateEmployeeRequest) patch() types.EmployeePatch {
	return types.EmployeePatch{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		NationalID12: req.NationalID12,
		TaxID:        req.TaxID,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmployeeResponse lists every field an employee exposes over the API.
type EmployeeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	NationalID12 string    `json:"nationalId12"`
	TaxID        string    `json:"taxId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type EmployeeSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EmployeeEnvelope struct {
	Message  string           `json:"message"`
	Employee EmployeeResponse `json:"employee"`
}

type EmployeeListResponse struct {
	Message   string             `json:"message"`
	Employees []EmployeeResponse `json:"employees"`
}

type SearchResponse struct {
	Message string             `json:"message"`
	Results []EmployeeResponse `json:"results"`
}

type LoginResponse struct {
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expiresAt"`
	Employee  EmployeeSummaryResponse `json:"employee"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error  string                `json:"error"`
	Fields []services.FieldError `json:"fields,omitempty"`
}

func employeeResponse(e types.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		NationalID12: e.NationalID12,
		TaxID:        e.TaxID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func employeeResponses(employees []types.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, employeeResponse(e))
	}
	return out
}

func employeeSummary(s services.EmployeeSummary) EmployeeSummaryResponse {
	return EmployeeSummaryResponse{ID: s.ID, Name: s.Name, Email: s.Email}
}
