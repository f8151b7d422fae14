package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// EmployeesHandler handles employee CRUD endpoints.
type EmployeesHandler struct {
	DBs *db.Registry
}

type employeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (req *employeeRequest) validate() string {
	if req.Name == "" {
		return "name required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return "valid email required"
	}
	return ""
}

// List handles GET /api/employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	employees, err := store.ListEmployees(r.Context(), database)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	jsonResponse(w, http.StatusOK, employees)
}

// Create handles POST /api/employees.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	employee, err := store.CreateEmployee(r.Context(), database, req.Name, req.Email)
	if isDuplicateError(err) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}

	jsonResponse(w, http.StatusCreated, employee)
}

// Get handles GET /api/employees/{id}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	employee, err := store.GetEmployee(r.Context(), database, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get employee")
		return
	}
	if employee == nil || employee.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "employee not found")
		return
	}

	jsonResponse(w, http.StatusOK, employee)
}

// GetAssignments handles GET /api/employees/{id}/assignments.
func (h *EmployeesHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	employee, err := store.GetEmployee(r.Context(), database, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get employee")
		return
	}
	if employee == nil || employee.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "employee not found")
		return
	}

	assignments, err := store.ListEmployeeAssignments(r.Context(), database, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"employee":    employee,
		"assignments": assignments,
	})
}

// Update handles PUT /api/employees/{id}.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	if err := store.UpdateEmployee(r.Context(), database, id, req.Name, req.Email); err != nil {
		if isDuplicateError(err) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to update employee")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "employee updated"})
}

// Delete handles DELETE /api/employees/{id}.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	database, err := h.DBs.Get(GetTenant(r.Context()))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown tenant")
		return
	}

	if err := store.DeleteEmployee(r.Context(), database, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "employee deleted"})
}
