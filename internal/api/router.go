package api

import (
	"net/http"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/service"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(dbs *db.Registry, jwtSecret string, assignments *service.Assignments, acceptance *service.Acceptance) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DBs: dbs, JWTSecret: jwtSecret}
	employeesHandler := &EmployeesHandler{DBs: dbs}
	itemsHandler := &ItemsHandler{DBs: dbs}
	activityHandler := &ActivityHandler{DBs: dbs}
	dashboardHandler := &DashboardHandler{DBs: dbs}
	assignmentsHandler := &AssignmentsHandler{Service: assignments}
	acceptanceHandler := &AcceptanceHandler{Service: acceptance}

	tenantMW := TenantMiddleware(dbs)
	authMW := AuthMiddleware(jwtSecret, dbs)
	requireManager := RequireRole(model.RoleManager)

	staff := func(h http.HandlerFunc) http.Handler {
		return tenantMW(authMW(h))
	}
	manager := func(h http.HandlerFunc) http.Handler {
		return tenantMW(authMW(requireManager(h)))
	}

	// Public: login (tenant-scoped, users live in the tenant database).
	mux.Handle("POST /api/auth/login", tenantMW(http.HandlerFunc(authHandler.Login)))

	// Authenticated session management.
	mux.Handle("PUT /api/auth/password", staff(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", staff(authHandler.Logout))

	// Employees: read (all roles), write (manager+).
	mux.Handle("GET /api/employees", staff(employeesHandler.List))
	mux.Handle("POST /api/employees", manager(employeesHandler.Create))
	mux.Handle("GET /api/employees/{id}", staff(employeesHandler.Get))
	mux.Handle("GET /api/employees/{id}/assignments", staff(employeesHandler.GetAssignments))
	mux.Handle("PUT /api/employees/{id}", manager(employeesHandler.Update))
	mux.Handle("DELETE /api/employees/{id}", manager(employeesHandler.Delete))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", staff(itemsHandler.List))
	mux.Handle("POST /api/items", manager(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", staff(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", manager(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", manager(itemsHandler.Delete))

	// Assignment workflow (manager+).
	mux.Handle("POST /api/assign/{employeeID}", manager(assignmentsHandler.Assign))
	mux.Handle("POST /api/remove/{employeeID}", manager(assignmentsHandler.Remove))
	mux.Handle("POST /api/acceptance/resend", manager(acceptanceHandler.Resend))

	// Acceptance links: no staff auth, the signed token carries both the
	// reservation and its tenant.
	mux.HandleFunc("GET /api/acceptance/validate/{token}", acceptanceHandler.Validate)
	mux.HandleFunc("POST /api/acceptance/accept/{token}", acceptanceHandler.Accept)
	mux.HandleFunc("POST /api/acceptance/reject/{token}", acceptanceHandler.Reject)

	// Reporting.
	mux.Handle("GET /api/dashboard", staff(dashboardHandler.Get))
	mux.Handle("GET /api/activity", staff(activityHandler.List))

	return mux
}
