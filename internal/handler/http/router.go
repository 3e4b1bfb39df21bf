package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg config.AppConfig,
	JWTService jwt.Service,
	employeeHandler EmployeeHandler,
	attendanceHandler AttendanceHandler,
	payrollHandler PayrollHandler,
	reportHandler ReportHandler,
	deliveryHandler DeliveryHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.Level(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.Level(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Authenticated by the short-lived stream token in the query
		r.Get("/deliveries/stream", deliveryHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", employeeHandler.ListEmployees)
				r.Post("/", employeeHandler.CreateEmployee)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", employeeHandler.GetEmployee)
					r.Put("/", employeeHandler.UpdateEmployee)

					r.Get("/attendance", attendanceHandler.ListRecords)
					r.Get("/attendance/summary", attendanceHandler.MonthlySummary)

					r.Get("/compensations", payrollHandler.ListCompensations)
					r.Post("/compensations", payrollHandler.CreateCompensation)
					r.Get("/bonuses", payrollHandler.ListBonuses)
					r.Post("/bonuses", payrollHandler.CreateBonus)
				})
			})

			r.Post("/attendance", attendanceHandler.CreateRecord)

			r.Route("/periods", func(r chi.Router) {
				r.Get("/", payrollHandler.ListPeriods)
				r.Post("/", payrollHandler.CreatePeriod)

				r.Route("/{periodID}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetPeriod)
					r.Post("/lock", payrollHandler.LockPeriod)
					r.Post("/unlock", payrollHandler.UnlockPeriod)

					r.Get("/payslips", payrollHandler.ListPayslips)
					r.Get("/payslips/{id}", payrollHandler.GetPayslip)
					r.Post("/payslips/{id}", payrollHandler.GeneratePayslip)

					r.Route("/reports", func(r chi.Router) {
						r.Get("/", reportHandler.ListArtifacts)
						r.Post("/payslips", reportHandler.GeneratePayslips)
						r.Post("/payslips/{id}", reportHandler.GeneratePayslip)
						r.Post("/payslips/{id}/send", reportHandler.SendPayslip)
						r.Post("/team-summary", reportHandler.ExportTeamSummary)
						r.Post("/team-summary/send", reportHandler.SendTeamSummary)
					})

					r.Post("/archive", reportHandler.ArchivePeriod)
				})
			})

			r.Route("/artifacts/{artifactID}", func(r chi.Router) {
				r.Get("/", reportHandler.GetArtifact)
				r.Get("/download", reportHandler.DownloadArtifact)
				r.Get("/tickets", deliveryHandler.ListTickets)
			})

			r.Get("/deliveries/token", deliveryHandler.GetSSEToken)
			r.Get("/deliveries/{ticketID}", deliveryHandler.GetTicket)
			r.Post("/deliveries/{ticketID}/cancel", deliveryHandler.CancelTicket)
		})
	})
	return r
}
