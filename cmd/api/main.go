package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/attendance-engine-go/internal/service/leave"
	policyService "github.com/cmlabs-hris/attendance-engine-go/internal/service/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	policyRepo := postgresql.NewPolicyRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveQuotaRepo := postgresql.NewLeaveQuotaRepository(db)
	leaveGrantRepo := postgresql.NewLeaveGrantRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	policySvc := policyService.NewPolicyService(policyRepo)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, policyRepo, leaveGrantRepo)
	leaveSvc := leaveService.NewLeaveService(db, leaveQuotaRepo, leaveGrantRepo, policyRepo)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	policyHandler := appHTTP.NewPolicyHandler(policySvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)

	router := appHTTP.NewRouter(
		JWTService,
		attendanceHandler,
		policyHandler,
		leaveHandler,
	)

	scheduler := cron.NewScheduler()
	jobs := cron.NewAttendanceJobs(attendanceSvc, cfg.Sweep.Interval)
	jobs.RegisterJobs(scheduler)
	scheduler.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		scheduler.Stop()
		os.Exit(0)
	}()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
