package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/http/handlers"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Roles          *handlers.RoleHandler
	Users          *handlers.UserHandler
	Offices        *handlers.OfficeHandler
	Cases          *handlers.CaseHandler
	Appeals        *handlers.AppealHandler
	Documents      *handlers.DocumentHandler
	Appointments   *handlers.AppointmentHandler
	Payments       *handlers.PaymentHandler
	Notifications  *handlers.NotificationHandler
	Reports        *handlers.ReportHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	roles := protected.Group("/roles", auth.RequirePermission(domain.PermRolesManage))
	roles.Get("/", cfg.Roles.List)
	roles.Get("/permissions", cfg.Roles.Permissions)
	roles.Post("/", cfg.Roles.Create)
	roles.Get("/:id", cfg.Roles.Get)
	roles.Patch("/:id", cfg.Roles.Update)
	roles.Delete("/:id", cfg.Roles.Delete)

	users := protected.Group("/users", auth.RequirePermission(domain.PermUsersManage))
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Post("/:id/activate", cfg.Users.Activate)
	users.Post("/:id/deactivate", cfg.Users.Deactivate)

	residents := protected.Group("/residents",
		auth.RequireRole(domain.BaseRoleKebeleManager, domain.BaseRoleAdmin),
		auth.RequirePermission(domain.PermResidentsVerify))
	residents.Get("/", cfg.Users.Residents)
	residents.Post("/:id/verify", cfg.Users.VerifyResident)

	offices := protected.Group("/offices")
	offices.Get("/", cfg.Offices.List)
	offices.Get("/:id", cfg.Offices.Get)
	offices.Post("/", auth.RequirePermission(domain.PermOfficesManage), cfg.Offices.Create)
	offices.Patch("/:id", auth.RequirePermission(domain.PermOfficesManage), cfg.Offices.Update)

	cases := protected.Group("/cases")
	cases.Post("/", auth.RequirePermission(domain.PermCasesCreate), cfg.Cases.Create)
	cases.Get("/", cfg.Cases.List)
	cases.Get("/:id", cfg.Cases.Get)
	cases.Patch("/:id/status", auth.RequirePermission(domain.PermCasesUpdateStatus), cfg.Cases.UpdateStatus)
	cases.Patch("/:id/priority",
		auth.RequireRole(domain.BaseRoleAdmin, domain.BaseRoleCoordinator), cfg.Cases.UpdatePriority)
	cases.Put("/:id/lawyer", auth.RequirePermission(domain.PermCasesAssign), cfg.Cases.AssignLawyer)
	cases.Put("/:id/coordinator", auth.RequireRole(domain.BaseRoleAdmin), cfg.Cases.ReassignCoordinator)
	cases.Get("/:id/notes", cfg.Cases.ListNotes)
	cases.Post("/:id/notes", cfg.Cases.AddNote)
	cases.Get("/:id/history", cfg.Cases.ListHistory)
	cases.Get("/:id/assignments", cfg.Cases.ListAssignments)
	cases.Get("/:id/documents", cfg.Documents.ListByCase)
	cases.Post("/:id/documents", auth.RequirePermission(domain.PermDocumentsUpload), cfg.Documents.Upload)

	protected.Get("/assignments/workloads",
		auth.RequireRole(domain.BaseRoleAdmin, domain.BaseRoleCoordinator), cfg.Cases.Workloads)

	appeals := protected.Group("/appeals")
	appeals.Post("/", auth.RequirePermission(domain.PermAppealsFile), cfg.Appeals.File)
	appeals.Get("/", cfg.Appeals.List)
	appeals.Get("/:id", cfg.Appeals.Get)
	appeals.Post("/:id/hearing", cfg.Appeals.ScheduleHearing)
	appeals.Post("/:id/decision", auth.RequirePermission(domain.PermAppealsDecide), cfg.Appeals.Decide)
	appeals.Post("/:id/withdraw", cfg.Appeals.Withdraw)

	documents := protected.Group("/documents")
	documents.Get("/:id", cfg.Documents.Get)
	documents.Get("/:id/download", cfg.Documents.Download)
	documents.Post("/:id/review", auth.RequirePermission(domain.PermDocumentsVerify), cfg.Documents.Review)
	documents.Delete("/:id", cfg.Documents.Delete)

	appointments := protected.Group("/appointments")
	appointments.Post("/", cfg.Appointments.Schedule)
	appointments.Get("/", cfg.Appointments.List)
	appointments.Get("/:id", cfg.Appointments.Get)
	appointments.Post("/:id/confirm", cfg.Appointments.Confirm)
	appointments.Post("/:id/complete", cfg.Appointments.Complete)
	appointments.Post("/:id/cancel", cfg.Appointments.Cancel)
	appointments.Post("/:id/reschedule", cfg.Appointments.Reschedule)

	payments := protected.Group("/payments")
	payments.Post("/", auth.RequirePermission(domain.PermPaymentsManage), cfg.Payments.Create)
	payments.Get("/", cfg.Payments.List)
	payments.Get("/:id", cfg.Payments.Get)
	payments.Patch("/:id/status", auth.RequirePermission(domain.PermPaymentsManage), cfg.Payments.UpdateStatus)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	protected.Get("/reports/dashboard", auth.RequirePermission(domain.PermReportsView), cfg.Reports.Dashboard)
}
