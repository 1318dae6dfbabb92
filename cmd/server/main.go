package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	audithandler "agrimarket/backend/internal/audit/handler"
	bookinghandler "agrimarket/backend/internal/booking/handler"
	bookingrepo "agrimarket/backend/internal/booking/repository"
	bookingservice "agrimarket/backend/internal/booking/service"
	cataloghandler "agrimarket/backend/internal/catalog/handler"
	catalogrepo "agrimarket/backend/internal/catalog/repository"
	healthhandler "agrimarket/backend/internal/health/handler"
	identityhandler "agrimarket/backend/internal/identity/handler"
	identityrepo "agrimarket/backend/internal/identity/repository"
	identityservice "agrimarket/backend/internal/identity/service"
	invrepo "agrimarket/backend/internal/inventory/repository"
	invitehandler "agrimarket/backend/internal/invite/handler"
	inviterepo "agrimarket/backend/internal/invite/repository"
	membershiphandler "agrimarket/backend/internal/membership/handler"
	memrepo "agrimarket/backend/internal/membership/repository"
	messagehandler "agrimarket/backend/internal/message/handler"
	messagerepo "agrimarket/backend/internal/message/repository"
	orderhandler "agrimarket/backend/internal/order/handler"
	orderrepo "agrimarket/backend/internal/order/repository"
	orderservice "agrimarket/backend/internal/order/service"
	organizationhandler "agrimarket/backend/internal/organization/handler"
	orgrepo "agrimarket/backend/internal/organization/repository"
	policyhandler "agrimarket/backend/internal/policy/handler"
	policyrepo "agrimarket/backend/internal/policy/repository"
	sessionrepo "agrimarket/backend/internal/session/repository"
	telemetryhandler "agrimarket/backend/internal/telemetry/handler"
	userhandler "agrimarket/backend/internal/user/handler"
	userrepo "agrimarket/backend/internal/user/repository"

	"agrimarket/backend/internal/audit"
	auditrepo "agrimarket/backend/internal/audit/repository"
	"agrimarket/backend/internal/config"
	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/notify/sms"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/policy/engine"
	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server"
	"agrimarket/backend/internal/telemetry"
	telemetryotel "agrimarket/backend/internal/telemetry/otel"
	"agrimarket/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbConn.Close()

	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pubKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	// Repositories.
	orgs := orgrepo.NewPostgresRepository(dbConn)
	users := userrepo.NewPostgresRepository(dbConn)
	identities := identityrepo.NewPostgresRepository(dbConn)
	memberships := memrepo.NewPostgresRepository(dbConn)
	sessions := sessionrepo.NewPostgresRepository(dbConn)
	invites := inviterepo.NewPostgresRepository(dbConn)
	products := catalogrepo.NewPostgresRepository(dbConn)
	inventory := invrepo.NewPostgresRepository(dbConn)
	orders := orderrepo.NewPostgresRepository(dbConn)
	bookings := bookingrepo.NewPostgresRepository(dbConn)
	messages := messagerepo.NewPostgresRepository(dbConn)
	policies := policyrepo.NewPostgresRepository(dbConn)
	auditLogs := auditrepo.NewPostgresRepository(dbConn)

	guard := rbac.NewGuard(memberships, orgs)
	evaluator := engine.NewOPAEvaluator(policies)

	authSvc := identityservice.NewAuthService(users, identities, sessions, memberships, orgs, hasher, tokens, cfg.RefreshTTL())
	checkoutSvc := orderservice.NewCheckoutService(orderservice.NewSQLStore(dbConn), products, orders, evaluator)

	var notifier sms.Sender
	if cfg.SMSLocalAPIKey != "" {
		notifier = sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}
	bookingSvc := bookingservice.NewBookingService(bookings, orgs, users, memberships, notifier)

	// Telemetry: OTLP providers for traces/metrics/logs, Kafka for the event pipeline.
	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, server.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	emitter := telemetryotel.NewEventEmitter(providers.LoggerProvider)

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}

	requestEmitter := emitter
	var ingestProducer producer.Producer
	if kafkaProducer != nil {
		requestEmitter = kafkaProducer
		ingestProducer = kafkaProducer
		defer kafkaProducer.Close()
	}

	auditLogger := audit.NewLogger(auditLogs)

	router := server.NewRouter(server.Deps{
		Tokens:   tokens,
		Auth:     identityhandler.NewAuthHandler(authSvc),
		Me:       userhandler.NewMeHandler(users, orgs, guard),
		Orgs:     organizationhandler.NewOrgHandler(orgs, memberships, guard),
		Members:  membershiphandler.NewMemberHandler(memberships, users, guard),
		Invites:  invitehandler.NewInviteHandler(invites, memberships, users, identities, guard, hasher, cfg.InviteTTL()),
		Catalog:  cataloghandler.NewCatalogHandler(products, inventory, guard),
		Orders:   orderhandler.NewOrderHandler(checkoutSvc, orders, guard),
		Bookings: bookinghandler.NewBookingHandler(bookingSvc, bookings, guard),
		Messages: messagehandler.NewMessageHandler(messages, orgs, guard),
		Policy:   policyhandler.NewPolicyHandler(policies, guard),
		Audit:    audithandler.NewAuditHandler(auditLogs, guard),
		Ingest:   telemetryhandler.NewTelemetryHandler(guard, ingestProducer, emitter),
		Health:   healthhandler.NewHealthHandler(dbConn, evaluator),

		AuditLogger:    auditLogger,
		RequestEmitter: requestEmitter,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async telemetry emits time to complete before tearing
	// down the OTel providers.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
