package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/ledgerforge/utxochain/foundation/blockchain/client"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/worker"
	"github.com/ledgerforge/utxochain/foundation/logger"
	"github.com/ledgerforge/utxochain/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	cfg := struct {
		conf.Version
		Node struct {
			Host    string        `conf:"default:http://localhost:3000"`
			Timeout time.Duration `conf:"default:10s"`
		}
		Mining struct {
			RetryNoBlock   time.Duration `conf:"default:5s"`
			RetryAfterMine time.Duration `conf:"default:1s"`
		}
		Wallet struct {
			Key    string `conf:"mask"`
			Name   string `conf:"default:miner1"`
			Folder string `conf:"default:zblock/wallets/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "utxo proof of work ledger miner",
		},
	}

	const prefix = "MINER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Wallet Support

	// Rewards for the mined blocks are paid to this wallet.
	var address string
	switch cfg.Wallet.Key {
	case "":
		privateKey, err := crypto.LoadECDSA(fmt.Sprintf("%s%s%s", cfg.Wallet.Folder, cfg.Wallet.Name, nameservice.KeyExt))
		if err != nil {
			return fmt.Errorf("unable to load private key for miner: %w", err)
		}
		address = signature.PublicKeyToAddress(privateKey.PublicKey)

	default:
		privateKey, err := signature.ToPrivateKey(cfg.Wallet.Key)
		if err != nil {
			return fmt.Errorf("unable to parse private key for miner: %w", err)
		}
		address = signature.PublicKeyToAddress(privateKey.PublicKey)
	}

	log.Infow("startup", "status", "mining for wallet", "wallet", address, "node", cfg.Node.Host)

	// =========================================================================
	// Start Mining

	// Cancelling the context aborts a block being mined and stops polling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ev := logger.EventHandler(log)
	cln := client.New(cfg.Node.Host, cfg.Node.Timeout)

	worker.Poll(ctx, cln, address, cfg.Mining.RetryNoBlock, cfg.Mining.RetryAfterMine, ev)

	log.Infow("shutdown", "status", "shutdown started")

	return nil
}
