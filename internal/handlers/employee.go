package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/emp-registry/apiserver/internal/services"
	"github.com/emp-registry/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// EmployeeHandler provides the directory endpoints.
type EmployeeHandler struct {
	employeeService *services.EmployeeService
	logger          *slog.Logger
}

func NewEmployeeHandler(employeeService *services.EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
		logger:          logger,
	}
}

// EmployeeRouter registers directory routes. Reads and mutations sit behind
// authMiddleware; the create variants stay public when publicCreate is set.
func EmployeeRouter(
	r chi.Router,
	employeeService *services.EmployeeService,
	authMiddleware func(http.Handler) http.Handler,
	publicCreate bool,
	logger *slog.Logger,
) {
	handler := NewEmployeeHandler(employeeService, logger)

	if publicCreate {
		r.Post("/create", handler.CreateEmployee)
		r.Post("/add", handler.CreateEmployee)
	} else {
		r.With(authMiddleware).Post("/create", handler.CreateEmployee)
		r.With(authMiddleware).Post("/add", handler.CreateEmployee)
	}

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListEmployees)
		r.Get("/search", handler.SearchEmployees)
		r.Get("/me", handler.Me)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", handler.GetEmployee)
			r.Put("/", handler.UpdateEmployee)
			r.Delete("/", handler.DeleteEmployee)
		})
	})
}

func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employeeService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list employees")
		return
	}

	writeJSON(w, http.StatusOK, EmployeeListResponse{
		Message:   "All employees",
		Employees: employeeResponses(employees),
	})
}

func (h *EmployeeHandler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.EmployeeFilter{
		Name:         strings.TrimSpace(q.Get("name")),
		Email:        strings.TrimSpace(q.Get("email")),
		NationalID12: strings.TrimSpace(q.Get("nationalId12")),
		TaxID:        strings.TrimSpace(q.Get("taxId")),
	}

	employees, err := h.employeeService.Search(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Message: "Search successful",
		Results: employeeResponses(employees),
	})
}

// Me returns the employee the bearer token was issued for.
func (h *EmployeeHandler) Me(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	employee, err := h.employeeService.Get(r.Context(), employeeID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to load employee")
		return
	}

	writeJSON(w, http.StatusOK, EmployeeEnvelope{
		Message:  "Employee found",
		Employee: employeeResponse(employee),
	})
}

func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseEmployeeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.employeeService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to fetch employee")
		return
	}

	writeJSON(w, http.StatusOK, EmployeeEnvelope{
		Message:  "Employee found",
		Employee: employeeResponse(employee),
	})
}

func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseEmployeeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.employeeService.Update(r.Context(), id, req.patch())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to update employee")
		return
	}

	writeJSON(w, http.StatusOK, EmployeeEnvelope{
		Message:  "Employee updated",
		Employee: employeeResponse(updated),
	})
}

func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseEmployeeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.employeeService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to delete employee")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Employee deleted"})
}

// CreateEmployee serves both /create and /add.
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.employeeService.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create employee")
		return
	}

	writeJSON(w, http.StatusCreated, EmployeeEnvelope{
		Message:  "Employee created successfully",
		Employee: employeeResponse(employee),
	})
}
