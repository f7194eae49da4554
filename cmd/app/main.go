package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senepay/verifyapi/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "verifyapi",
		Usage: "SenePay payment verification API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./verifyapi.sqlite",
				Usage: "SQLite file path",
			},
			&cli.DurationFlag{
				Name:    "lookup-timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("SENEPAY_LOOKUP_TIMEOUT"),
				Usage:   "Per-request store lookup timeout",
			},
			&cli.BoolFlag{
				Name:    "audit-fail-closed",
				Sources: cli.EnvVars("SENEPAY_AUDIT_FAIL_CLOSED"),
				Usage:   "Abort verifications when the audit entry cannot be written",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("SENEPAY_WEBHOOK_URL"),
				Usage:   "Merchant webhook target for payment.verified events",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("SENEPAY_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("SENEPAY_BOOTSTRAP_API_KEY"),
				Usage:   "Optional merchant API key to seed at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant-id",
				Sources: cli.EnvVars("SENEPAY_BOOTSTRAP_TENANT_ID"),
				Usage:   "Tenant id for the bootstrap merchant (random when empty)",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("SENEPAY_BOOTSTRAP_TENANT_NAME"),
				Usage:   "Tenant name for the bootstrap merchant",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:                c.String("addr"),
				DBPath:              c.String("db-path"),
				LookupTimeout:       c.Duration("lookup-timeout"),
				AuditFailClosed:     c.Bool("audit-fail-closed"),
				WebhookURL:          c.String("webhook-url"),
				WebhookSecret:       c.String("webhook-secret"),
				BootstrapTenantID:   c.String("bootstrap-tenant-id"),
				BootstrapTenantName: c.String("bootstrap-tenant-name"),
				BootstrapAPIKey:     c.String("bootstrap-api-key"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
