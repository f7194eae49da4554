package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/senepay/verifyapi/internal/adapters/events"
	"github.com/senepay/verifyapi/internal/adapters/httpapi"
	sqliteadapter "github.com/senepay/verifyapi/internal/adapters/sqlite"
	"github.com/senepay/verifyapi/internal/adapters/sqlite/gormsqlite"
	"github.com/senepay/verifyapi/internal/core/domain"
	"github.com/senepay/verifyapi/internal/core/ports"
	"github.com/senepay/verifyapi/internal/core/usecase"
	"github.com/senepay/verifyapi/migrations"
)

type Config struct {
	Addr            string
	DBPath          string
	LookupTimeout   time.Duration
	AuditFailClosed bool

	// Optional merchant webhook for payment.verified events. When unset,
	// events are logged instead of delivered.
	WebhookURL    string
	WebhookSecret string

	// Optional tenant seeded at startup so a fresh deployment can serve
	// verifications without a separate provisioning step.
	BootstrapTenantID   string
	BootstrapTenantName string
	BootstrapAPIKey     string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	tenantRepo := sqliteadapter.NewTenantRepository(db)
	txnRepo := sqliteadapter.NewTransactionRepository(db)
	auditRepo := sqliteadapter.NewAuditRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	verifyService := usecase.NewVerifyService(tenantRepo, txnRepo, auditRepo, outboxRepo, cfg.LookupTimeout, cfg.AuditFailClosed)
	auditService := usecase.NewAuditService(auditRepo)

	var publisher ports.EventPublisher = events.NewLogPublisher()
	if cfg.WebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, 0)
	}
	dispatcher := usecase.NewOutboxDispatcher(outboxRepo, publisher, 2*time.Second, 100)
	dispatcher.Start(context.Background())

	if cfg.BootstrapAPIKey != "" {
		if err := bootstrapTenant(tenantRepo, cfg); err != nil {
			_ = dispatcher.Close()
			_ = db.Close()
			return nil, nil, err
		}
	}

	handler := httpapi.NewHandler(verifyService, auditService)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, db}}, nil
}

func bootstrapTenant(repo ports.TenantRepository, cfg Config) error {
	id := cfg.BootstrapTenantID
	if id == "" {
		id = uuid.NewString()
	}
	name := cfg.BootstrapTenantName
	if name == "" {
		name = "bootstrap"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := repo.Upsert(ctx, domain.Tenant{
		ID:     id,
		Name:   name,
		APIKey: cfg.BootstrapAPIKey,
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap tenant: %w", err)
	}
	return nil
}
