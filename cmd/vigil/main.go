// Command vigil runs the Validation Gate process: it wires configuration,
// telemetry, the ledger and ontology connections, the signer, the validator
// registry, the gate orchestrator, caller authentication, and the HTTP
// server, then serves POST /validate until told to shut down.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/vigil-governance/vigil/internal/callerauth"
	"github.com/vigil-governance/vigil/internal/config"
	"github.com/vigil-governance/vigil/internal/gate"
	"github.com/vigil-governance/vigil/internal/integrity"
	"github.com/vigil-governance/vigil/internal/ledger"
	"github.com/vigil-governance/vigil/internal/ontology"
	"github.com/vigil-governance/vigil/internal/ratelimit"
	"github.com/vigil-governance/vigil/internal/registry"
	"github.com/vigil-governance/vigil/internal/server"
	"github.com/vigil-governance/vigil/internal/signer"
	"github.com/vigil-governance/vigil/internal/telemetry"
	ledgermigrations "github.com/vigil-governance/vigil/migrations/ledger"
	ontologymigrations "github.com/vigil-governance/vigil/migrations/ontology"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := parseLogLevel(os.Getenv("VIGIL_LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("vigil starting", "version", version, "port", cfg.Port)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Ledger: append-only, time-partitioned store for signed verdicts.
	ledgerDB, err := ledger.New(ctx, cfg.LedgerURL, logger)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	defer ledgerDB.Close(ctx)

	if err := ledgerDB.RunMigrations(ctx, ledgermigrations.FS); err != nil {
		return fmt.Errorf("ledger migrations: %w", err)
	}

	// Ontology: the semantic authority graph store.
	ontologyPool, err := newPgxPool(ctx, cfg.OntologyURL)
	if err != nil {
		return fmt.Errorf("ontology: %w", err)
	}
	defer ontologyPool.Close()

	if err := runOntologyMigrations(ctx, ontologyPool, logger); err != nil {
		return fmt.Errorf("ontology migrations: %w", err)
	}
	ontologyClient := ontology.NewPostgresClient(ontologyPool)

	sig := signer.New(cfg.SignatureSecret)

	valTimeout := time.Duration(cfg.TValMS) * time.Millisecond
	reg := registry.New(valTimeout)

	var limiter gate.Limiter
	if cfg.RateLimitRPS > 0 {
		memLimiter := ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer func() { _ = memLimiter.Close() }()
		limiter = memLimiter
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}

	gateCfg := gate.Config{
		Total:          time.Duration(cfg.TTotalMS) * time.Millisecond,
		Health:         time.Duration(cfg.THealthMS) * time.Millisecond,
		HealthCacheTTL: time.Duration(cfg.TCacheMS) * time.Millisecond,
		Semantic:       time.Duration(cfg.TSemMS) * time.Millisecond,
		Persist:        time.Duration(cfg.TPersistMS) * time.Millisecond,
		CoverageFloor:  cfg.CoverageFloor,
	}
	g := gate.New(ontologyClient, reg, sig, ledgerDB, limiter, gateCfg, logger)

	authMgr, err := callerauth.NewManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("callerauth: %w", err)
	}

	srv := server.New(server.ServerConfig{
		Gate:                g,
		Ontology:            ontologyClient,
		Ledger:              ledgerDB,
		CallerAuth:          authMgr,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		CompleteFailClosed:  cfg.CompleteFailClosed,
	})

	// Background loops: periodic Merkle-root batch proofs over the ledger
	// (spec.md's Audit Ledger §3.1 supplement) and a periodic ontology ping
	// that logs reachability failures.
	go integrityProofLoop(ctx, ledgerDB, logger, cfg.IntegrityProofInterval)
	go healthCacheRefreshLoop(ctx, ontologyClient, logger, cfg.HealthCacheRefreshEvery)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting new HTTP requests and drain
	// in-flight ones (each request's ledger append completes inside its own
	// handler), then check under a bounded timeout that the ledger is still
	// reachable before the deferred Close runs.
	slog.Info("vigil shutting down")

	httpCtx, httpCancel := contextWithOptionalTimeout(context.Background(), cfg.ShutdownHTTPTimeout)
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	httpCancel()

	ledgerCtx, ledgerCancel := contextWithOptionalTimeout(context.Background(), cfg.ShutdownLedgerTimeout)
	if err := ledgerDB.Ping(ledgerCtx); err != nil {
		slog.Warn("ledger unreachable at shutdown", "error", err)
	}
	ledgerCancel()

	slog.Info("vigil stopped")
	return nil
}

// newPgxPool opens and pings a connection pool against dsn. Ledger owns its
// own pool internally (internal/ledger.New); the ontology store does not, so
// cmd/vigil builds and owns this one directly.
func newPgxPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}

	return pool, nil
}

// runOntologyMigrations applies the ontology's embedded SQL files in order.
// A simple forward-only runner, mirroring internal/ledger.DB.RunMigrations
// since the ontology store owns no *ledger.DB of its own to hang the method
// off of.
func runOntologyMigrations(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	entries, err := fs.ReadDir(ontologymigrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(ontologymigrations.FS, entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		logger.Info("running ontology migration", "file", entry.Name())
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func contextWithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// integrityProofLoop periodically batches newly-appended verdicts into a
// Merkle-root proof. Unlike the teacher's per-organization batching loop,
// the gate has no tenant dimension, so this runs a single global window.
func integrityProofLoop(ctx context.Context, db *ledger.DB, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			buildIntegrityProof(opCtx, db, logger)
			cancel()
		}
	}
}

func buildIntegrityProof(ctx context.Context, db *ledger.DB, logger *slog.Logger) {
	now := time.Now().UTC()

	latest, err := db.GetLatestIntegrityProof(ctx)
	if err != nil {
		logger.Warn("integrity proof: get latest failed", "error", err)
		return
	}

	batchStart := time.Time{} // Zero time: include all verdicts from the beginning.
	var previousRoot *string
	if latest != nil {
		batchStart = latest.BatchEnd
		previousRoot = &latest.RootHash
	}

	hashes, err := db.VerdictHashesForBatch(ctx, batchStart, now)
	if err != nil {
		logger.Warn("integrity proof: get hashes failed", "error", err)
		return
	}
	if len(hashes) == 0 {
		return // No new verdicts; skip this cycle.
	}

	root := integrity.BuildMerkleRoot(hashes)

	proof := ledger.IntegrityProof{
		BatchStart:   batchStart,
		BatchEnd:     now,
		VerdictCount: len(hashes),
		RootHash:     root,
		PreviousRoot: previousRoot,
		CreatedAt:    now,
	}

	if err := db.CreateIntegrityProof(ctx, proof); err != nil {
		logger.Warn("integrity proof: create failed", "error", err)
		return
	}

	logger.Info("integrity proof created", "verdicts", len(hashes), "root_hash", root[:16]+"...")
}

// healthCacheRefreshLoop pings the ontology client on a fixed interval and
// logs any failure. It does not write the gate's health cache: that cache is
// refreshed only by the gate's own probe once its TTL has expired, so the
// first request after each expiry still pays for one uncached ping.
func healthCacheRefreshLoop(ctx context.Context, client ontology.Client, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := client.Ping(pingCtx); err != nil {
				logger.Warn("health cache refresh: ontology ping failed", "error", err)
			}
			cancel()
		}
	}
}
