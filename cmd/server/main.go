package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	analyticsHandler "cartera/internal/analytics/handler"
	analyticsService "cartera/internal/analytics/service"
	analyticsStore "cartera/internal/analytics/store"
	authHandler "cartera/internal/auth/handler"
	authModel "cartera/internal/auth/models"
	authService "cartera/internal/auth/service"
	authStore "cartera/internal/auth/store"
	"cartera/internal/claim"
	claimHandler "cartera/internal/claim/handler"
	customerHandler "cartera/internal/customer/handler"
	customerService "cartera/internal/customer/service"
	customerStore "cartera/internal/customer/store"
	"cartera/internal/events"
	jwttoken "cartera/internal/jwt_token"
	passHandler "cartera/internal/pass/handler"
	passService "cartera/internal/pass/service"
	passStore "cartera/internal/pass/store"
	"cartera/internal/platform/config"
	"cartera/internal/platform/httpserver"
	"cartera/internal/platform/logger"
	"cartera/internal/platform/metrics"
	"cartera/internal/platform/migrate"
	redisplatform "cartera/internal/platform/redis"
	projectHandler "cartera/internal/project/handler"
	projectModel "cartera/internal/project/models"
	projectService "cartera/internal/project/service"
	projectStore "cartera/internal/project/store"
	httptransport "cartera/internal/transport/http"
	visitHandler "cartera/internal/visit/handler"
	visitmetrics "cartera/internal/visit/metrics"
	visitService "cartera/internal/visit/service"
	visitStore "cartera/internal/visit/store"
	"cartera/internal/wallet"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/tx"
)

const passCacheTTL = time.Minute

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	var (
		projects  projectStore.ProjectStore
		locations projectStore.LocationStore
		passes    passStore.PassStore
		visits    visitStore.VisitStore
		customers customerStore.CustomerStore
		members   authStore.MemberStore
		pool      *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		if err := migrate.Up(cfg.DatabaseURL); err != nil {
			return err
		}
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := projectStore.NewPostgres(pool)
		projects, locations = pg, pg
		passes = passStore.NewPostgresPassStore(pool)
		visits = visitStore.NewPostgresVisitStore(pool)
		customers = customerStore.NewPostgresCustomerStore(pool)
		members = authStore.NewPostgresMemberStore(pool)
		log.Info("using postgres stores")
	} else {
		mem := projectStore.NewInMemory()
		projects, locations = mem, mem
		passes = passStore.NewInMemoryPassStore()
		visits = visitStore.NewInMemoryVisitStore()
		customers = customerStore.NewInMemoryCustomerStore()
		members = authStore.NewInMemoryMemberStore()
		if err := seedDevFixtures(ctx, projects, members); err != nil {
			return err
		}
		log.Warn("no DATABASE_URL set, using in-memory stores with dev fixtures")
	}
	passes = passStore.NewCachedPassStore(passes, passCacheTTL)

	var sessions authStore.SessionStore
	if cfg.Redis.URL != "" {
		redisClient, err := redisplatform.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		sessions = authStore.NewRedisSessionStore(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = authStore.NewInMemorySessionStore()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return err
		}
		defer kafkaPub.Close()
		if err := kafkaPub.EnsureTopics(ctx, int16(cfg.Kafka.NumReplicas)); err != nil {
			return err
		}
		if pool != nil {
			// Stage events next to the rows they describe; the worker drains
			// the outbox to the broker with at-least-once delivery.
			outbox := events.NewOutbox(pool)
			publisher = outbox
			worker := events.NewWorker(outbox, kafkaPub, 5*time.Second, log)
			go worker.Run(ctx)
		} else {
			publisher = kafkaPub
		}
		log.Info("event publishing enabled", "brokers", cfg.Kafka.Brokers)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	validator := jwttoken.NewMiddlewareAdapter(jwtService)

	hub := authService.NewHub()
	auth := authService.NewService(sessions, members, jwtService, hub, cfg.OAuth, cfg.JWT.AccessTTL)

	projectSvc := projectService.New(projects, locations)
	customerSvc := customerService.New(customers)

	passSvc := passService.New(passes, projectSvc, cfg.CanonicalOrigin)
	passSvc.SetLogger(log)
	passSvc.SetCustomerSync(customerSvc)
	passSvc.SetPublisher(publisher)

	visitSvc := visitService.New(visits, passSvc, projectSvc, publisher, visitmetrics.New(), cfg.VisitWindow, log)
	if pool != nil {
		// Registration commits the pass update, the visit row and the
		// staged event as one transaction.
		visitSvc.SetTxRunner(tx.NewPgx(pool))
	}

	flows := claim.NewFlows(auth, passSvc, passSvc, cfg.CanonicalOrigin+"/claim/callback", log)
	generator := wallet.NewGenerator(cfg.PassGeneratorURL)

	handlers := []httptransport.Registerer{
		authHandler.New(auth, log, m, validator),
		projectHandler.New(projectSvc, log, m, validator),
		passHandler.New(passSvc, projectSvc, generator, log, m, validator),
		claimHandler.New(flows, auth, passSvc, log, m, validator),
		visitHandler.New(visitSvc, log, m, validator, cfg.ScanRatePerMinute),
		customerHandler.New(customerSvc, log, m, validator),
	}
	if pool != nil {
		// KPIs are SQL aggregations over durable data; there is no
		// in-memory variant.
		analyticsSvc := analyticsService.New(analyticsStore.NewPostgresAnalyticsStore(pool))
		handlers = append(handlers, analyticsHandler.New(analyticsSvc, log, m, validator))
	}

	router := httptransport.NewRouter(log, m, handlers...)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting cartera server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Well-known IDs for the in-memory development mode, so local clients and
// the e2e suite can log in without a provisioning step.
var devProjectID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func seedDevFixtures(ctx context.Context, projects projectStore.ProjectStore, members authStore.MemberStore) error {
	now := time.Now().UTC()
	project, err := projectModel.NewProject(id.ProjectID(devProjectID), "Demo Project", now)
	if err != nil {
		return err
	}
	if err := projects.Create(ctx, project); err != nil {
		return err
	}

	hash, err := authService.HashPassword(envOr("DEV_ADMIN_PASSWORD", "cartera-dev"))
	if err != nil {
		return err
	}
	return members.Save(ctx, &authModel.Member{
		ID:           id.UserID(uuid.New()),
		ProjectID:    project.ID,
		Email:        envOr("DEV_ADMIN_EMAIL", "admin@cartera.local"),
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    now,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
