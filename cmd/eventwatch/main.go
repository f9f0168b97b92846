package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabapcia/eventwatch/internal/accountregistry"
	"github.com/gabapcia/eventwatch/internal/accountwatch"
	"github.com/gabapcia/eventwatch/internal/config"
	"github.com/gabapcia/eventwatch/internal/decode"
	"github.com/gabapcia/eventwatch/internal/handlers/cli"
	solanainfra "github.com/gabapcia/eventwatch/internal/infra/blockchain/solana"
	"github.com/gabapcia/eventwatch/internal/infra/storage/postgres"
	"github.com/gabapcia/eventwatch/internal/infra/storage/redis"
	"github.com/gabapcia/eventwatch/internal/indexer"
	"github.com/gabapcia/eventwatch/internal/pkg/logger"
	"github.com/gabapcia/eventwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/eventwatch/internal/pkg/telemetry"
	transporthttp "github.com/gabapcia/eventwatch/internal/pkg/transport/http"
	"github.com/gabapcia/eventwatch/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/eventwatch/internal/schema"

	"github.com/gagliardetto/solana-go"
)

const serviceName = "eventwatch"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	shutdownTelemetry, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize telemetry:", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(ctx)

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry, err := schema.LoadFile(cfg.SchemaPath)
	if err != nil {
		logger.Fatal(ctx, "failed to load event schema", "path", cfg.SchemaPath, "error", err)
	}
	decoder := decode.NewDecoder(registry)

	var programID solana.PublicKey
	if cfg.ProgramID != "" {
		programID, err = solana.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			logger.Fatal(ctx, "invalid program id", "program_id", cfg.ProgramID, "error", err)
		}
	}

	staticAccounts := make([]solana.PublicKey, 0, len(cfg.Accounts))
	for _, address := range cfg.Accounts {
		account, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			logger.Fatal(ctx, "invalid watch account", "address", address, "error", err)
		}
		staticAccounts = append(staticAccounts, account)
	}

	pg, err := postgres.NewClient(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to postgres", "error", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure storage schema", "error", err)
	}

	rd, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to redis", "error", err)
	}
	defer rd.Close()

	chain := solanainfra.NewClient(jsonrpc.NewClient(
		transporthttp.NewClient().StandardClient(),
		cfg.RPCEndpoint,
	))

	ar := accountregistry.New(rd)

	newWatcher := func(accounts []solana.PublicKey) accountwatch.Service {
		return accountwatch.New(chain, pg, pg, decoder, programID, accounts,
			accountwatch.WithRetry(retry.New()),
			accountwatch.WithIdempotencyGuard(rd),
			accountwatch.WithPollInterval(cfg.PollInterval),
			accountwatch.WithMaxBackoff(cfg.MaxBackoff),
			accountwatch.WithFetchLimit(cfg.FetchLimit),
			accountwatch.WithClaimTTL(cfg.ClaimTTL),
		)
	}

	ix := indexer.New(ar, newWatcher, indexer.WithStaticAccounts(staticAccounts))

	if err := cli.Run(ctx, ar, ix); err != nil {
		logger.Fatal(ctx, "eventwatch terminated", "error", err)
	}
}
