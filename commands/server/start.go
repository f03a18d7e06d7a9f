package server

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tendermint/tendermint/abci/server"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/app"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/store/bolt"
	"github.com/fluida-labs/fluida/store/iavl"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
	flagHTTP  = "http"
	flagStore = "store"
)

// parseStartFlags overrides the loaded configuration with the command line.
func parseStartFlags(cfg Config, args []string) (Config, error) {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&cfg.Bind, flagBind, cfg.Bind, "address server listens on")
	fs.BoolVar(&cfg.Debug, flagDebug, cfg.Debug, "call stack returned on error")
	fs.StringVar(&cfg.HTTP.Listen, flagHTTP, cfg.HTTP.Listen, "address of the HTTP query API, empty to disable")
	fs.StringVar(&cfg.Store, flagStore, cfg.Store, "storage backend: iavl or bolt")
	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(errors.ErrInput, err.Error())
	}
	return cfg, cfg.Validate()
}

// OpenStore opens the committed store selected by the configuration. The
// returned function releases it.
func OpenStore(cfg Config, home string) (fluida.CommitKVStore, func() error, error) {
	dir := cfg.DataPath(home)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	switch cfg.Store {
	case StoreIAVL:
		return iavl.NewCommitStore(dir, "fluida"), func() error { return nil }, nil
	case StoreBolt:
		s, err := bolt.NewCommitStore(filepath.Join(dir, "fluida.bolt"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, errors.Wrapf(errors.ErrInput, "unknown store %q", cfg.Store)
	}
}

// StartCmd runs the ABCI server together with the HTTP query API until the
// process is interrupted.
func StartCmd(logger log.Logger, home string, args []string) error {
	cfg, err := LoadConfig(home)
	if err != nil {
		return err
	}
	if cfg, err = parseStartFlags(cfg, args); err != nil {
		return err
	}

	kv, closeStore, err := OpenStore(cfg, home)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer closeStore()

	swapApp := app.NewSwapApp(kv, logger.With("module", "app"), cfg.Debug)

	logger.Info("Starting ABCI app", "bind", cfg.Bind, "store", cfg.Store)
	svr, err := server.NewServer(cfg.Bind, "socket", swapApp)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrap(err, "start abci server")
	}
	defer svr.Stop()

	var httpSrv *http.Server
	if cfg.HTTP.Listen != "" {
		httpSrv = &http.Server{
			Addr:    cfg.HTTP.Listen,
			Handler: NewHTTPHandler(swapApp.StoreApp, logger.With("module", "api")),
		}
		go func() {
			logger.Info("Starting query API", "listen", cfg.HTTP.Listen)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("query API stopped", "err", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")

	if httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("query API shutdown", "err", err)
		}
	}
	return nil
}
