// Command claimd serves the airdrop claim contract over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfsorg/libclaim-go/api"
	"github.com/bitfsorg/libclaim-go/config"
	"github.com/bitfsorg/libclaim-go/contract"
	"github.com/bitfsorg/libclaim-go/logging"
	"github.com/bitfsorg/libclaim-go/store"
	"github.com/bitfsorg/libclaim-go/token"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "claimd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := store.OpenBoltStore(filepath.Join(cfg.DataDir, store.DBFileName))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("close store", zap.Error(err))
		}
	}()

	rpcCfg := token.RPCConfig{
		URL:      cfg.TokenRPCURL,
		User:     cfg.TokenRPCUser,
		Password: cfg.TokenRPCPass,
		Timeout:  cfg.TokenRPCTimeout,
	}
	if err := rpcCfg.Validate(); err != nil {
		return err
	}

	c, err := contract.New(contract.Options{
		Store:       st,
		Tokens:      token.NewRPCClient(rpcCfg),
		SelfAccount: cfg.SelfAccount,
		Owner:       cfg.Owner,
		Operator:    cfg.Operator,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(c, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("claimd listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("datadir", cfg.DataDir),
			zap.String("token_rpc", cfg.TokenRPCURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = c.Close(context.Background())
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := c.Close(shutdownCtx); err != nil {
		log.Warn("transfers still in flight at shutdown", zap.Error(err))
	}
	return nil
}

// loadConfig layers defaults, the config file, CLAIM_* variables and
// explicitly set flags, then validates the result.
func loadConfig(args []string) (config.Config, error) {
	def := config.DefaultConfig()
	fs := flag.NewFlagSet("claimd", flag.ContinueOnError)
	var (
		dataDir  = fs.String("datadir", def.DataDir, "data directory")
		listen   = fs.String("listen", def.ListenAddr, "HTTP listen address")
		logLevel = fs.String("loglevel", def.LogLevel, "log level (debug, info, warn, error)")
		logFile  = fs.String("logfile", def.LogFile, "also log to this file")
		owner    = fs.String("owner", "", "owner account for a new state")
		operator = fs.String("operator", "", "operator account for a new state")
		self     = fs.String("self", "", "account holding the airdropped tokens")
		rpcURL   = fs.String("token-rpc", def.TokenRPCURL, "token service JSON-RPC URL")
		rpcUser  = fs.String("token-rpc-user", "", "token service RPC user")
		rpcPass  = fs.String("token-rpc-pass", "", "token service RPC password")
		timeout  = fs.Duration("token-rpc-timeout", def.TokenRPCTimeout, "token service RPC timeout")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// The data directory decides which config file is read, so it is
	// resolved from flag and environment first.
	dir := *dataDir
	if !set["datadir"] {
		if v := os.Getenv("CLAIM_DATADIR"); v != "" {
			dir = v
		}
	}

	cfg, err := config.LoadConfig(config.ConfigPath(dir))
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = def
	case err != nil:
		return config.Config{}, err
	}
	cfg.DataDir = dir
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}

	overrides := map[string]func(){
		"datadir":           func() { cfg.DataDir = *dataDir },
		"listen":            func() { cfg.ListenAddr = *listen },
		"loglevel":          func() { cfg.LogLevel = *logLevel },
		"logfile":           func() { cfg.LogFile = *logFile },
		"owner":             func() { cfg.Owner = *owner },
		"operator":          func() { cfg.Operator = *operator },
		"self":              func() { cfg.SelfAccount = *self },
		"token-rpc":         func() { cfg.TokenRPCURL = *rpcURL },
		"token-rpc-user":    func() { cfg.TokenRPCUser = *rpcUser },
		"token-rpc-pass":    func() { cfg.TokenRPCPass = *rpcPass },
		"token-rpc-timeout": func() { cfg.TokenRPCTimeout = *timeout },
	}
	for name := range set {
		overrides[name]()
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
