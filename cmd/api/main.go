package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	accessService "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
	attendanceService "github.com/cmlabs-hris/payroll-backend-go/internal/service/attendance"
	deliveryService "github.com/cmlabs-hris/payroll-backend-go/internal/service/delivery"
	employeeService "github.com/cmlabs-hris/payroll-backend-go/internal/service/employee"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	reportService "github.com/cmlabs-hris/payroll-backend-go/internal/service/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.Level()})))

	if cfg.PDFOwnerPasswordMissing() {
		slog.Warn("PDF_OWNER_PASSWORD is empty, payslip permissions can be changed by anyone holding the national ID")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repos repository.Repositories
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			fmt.Println("Error connecting to database:", err)
			return
		}
		defer db.Close()
		repos = repository.NewPostgres(db)
	case "memory":
		slog.Warn("Using in-memory store, data is lost on restart")
		repos = repository.NewMemory(memory.NewStore())
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub()
	resolver := accessService.NewResolver(repos.Employees)

	builder := payrollService.NewPayslipBuilder(repos.Periods, repos.Compensations, repos.Bonuses, repos.Attendance, repos.Payslips)
	dispatcher := deliveryService.NewDispatcher(cfg.Delivery, repos.Tickets, repos.Artifacts, fileStorage, emailService, hub)
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal("Failed to start delivery dispatcher:", err)
	}
	archiver := reportService.NewArchiver(repos.Periods, repos.Artifacts, fileStorage)

	employeeSvc := employeeService.NewEmployeeService(repos.Employees, resolver)
	attendanceSvc := attendanceService.NewAttendanceService(repos.Attendance, repos.Periods, resolver)
	payrollSvc := payrollService.NewPayrollService(repos.Periods, repos.Compensations, repos.Bonuses, repos.Payslips, builder, resolver)
	reportSvc := reportService.NewReportService(
		cfg.Report,
		repos.Periods,
		repos.Payslips,
		repos.Attendance,
		repos.Artifacts,
		builder,
		fileStorage,
		dispatcher,
		archiver,
		resolver,
	)
	deliverySvc := deliveryService.NewDeliveryService(repos.Tickets, dispatcher, hub, resolver)

	scheduler := cron.NewScheduler()
	cron.NewReportJobs(archiver, dispatcher, cfg.Archive.Interval, cfg.Delivery.SweepEvery, cfg.Archive.Retention).RegisterJobs(scheduler)
	scheduler.Start(ctx)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewEmployeeHandler(employeeSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewReportHandler(reportSvc),
		appHTTP.NewDeliveryHandler(deliverySvc, JWTService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	scheduler.Stop()
	dispatcher.Stop()
	slog.Info("Server stopped")
}
