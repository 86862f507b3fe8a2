package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain/consent"
	"github.com/clinicore/clinicore/internal/domain/identity"
	"github.com/clinicore/clinicore/internal/domain/intake"
	"github.com/clinicore/clinicore/internal/domain/notes"
	"github.com/clinicore/clinicore/internal/domain/orders"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/scheduling"
	"github.com/clinicore/clinicore/internal/domain/surgery"
	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/metrics"
	"github.com/clinicore/clinicore/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinical practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.ClientMetadata())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		jwtCfg := auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}
		if cfg.JWTSecret != "" {
			jwtCfg.SigningKey = []byte(cfg.JWTSecret)
		}
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	e.GET("/health", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	m := metrics.New(prometheus.DefaultRegisterer)

	// Identity first: every machine re-derives actor roles from it.
	identityRepo := identity.NewRepo(pool)
	identitySvc := identity.NewService(identityRepo)
	roles := lifecycle.NewRoleValidator(identity.NewRoleStore(identityRepo))

	intakeSvc := intake.NewService(intake.NewRepo(pool))
	schedulingSvc := scheduling.NewService(scheduling.NewRepo(pool))
	notesSvc := notes.NewService(notes.NewRepo(pool))

	consentExec := consent.NewExecutor(pool, roles, m, logger)
	consentSvc := consent.NewService(consent.NewRepo(pool), consentExec)

	ordersExec := orders.NewExecutor(pool, roles, m, logger)
	ordersSvc := orders.NewService(orders.NewRepo(pool), ordersExec)

	surgeryRepo := surgery.NewRepo(pool)
	surgeryExec := surgery.NewExecutor(pool, surgeryRepo, roles, m, logger)
	surgerySvc := surgery.NewService(surgeryRepo, surgeryExec)

	// The patient journey's preconditions query the other domains.
	consentStructured, consentDocument := consentSvc.SignedEvidence()
	patientExec := patient.NewExecutor(pool, patient.Evidence{
		IntakeCompleted:       intakeSvc.CompletedForPatient,
		ConsultationScheduled: schedulingSvc.ConsultationScheduled,
		ConsultationCompleted: schedulingSvc.ConsultationCompleted,
		ProcedurePlanned:      surgerySvc.PlanForPatient,
		ConsentSigned:         []lifecycle.EvidenceFunc{consentStructured, consentDocument},
		SurgeryScheduled:      schedulingSvc.SurgeryScheduled,
		FollowUpNote:          notesSvc.FollowUpNoteExists,
	}, roles, m, logger)
	patientSvc := patient.NewService(patient.NewRepo(pool), patientExec)

	apiV1 := e.Group("/api/v1")
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc, patientExec).RegisterRoutes(apiV1)
	intake.NewHandler(intakeSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)
	notes.NewHandler(notesSvc).RegisterRoutes(apiV1)
	consent.NewHandler(consentSvc, consentExec).RegisterRoutes(apiV1)
	orders.NewHandler(ordersSvc, ordersExec).RegisterRoutes(apiV1)
	surgery.NewHandler(surgerySvc, surgeryExec).RegisterRoutes(apiV1)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.StartServer(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
