package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	flags "github.com/jessevdk/go-flags"

	"github.com/umputun/secsplit/app/server"
	"github.com/umputun/secsplit/app/session"
	"github.com/umputun/secsplit/app/shares"
	"github.com/umputun/secsplit/app/store"
)

var opts struct {
	DocDB string `long:"doc-db" env:"SECSPLIT_DOC_DB" default:"secsplit-doc.db" description:"document store URL (sqlite file or postgres://...)"`
	KeyDB string `long:"key-db" env:"SECSPLIT_KEY_DB" default:"secsplit-key.db" description:"key store URL (sqlite file or postgres://...)"`

	Capacity int `long:"capacity" env:"SECSPLIT_CAPACITY" default:"512" description:"padded buffer size in bytes for each stored value"`

	Server struct {
		Address         string `long:"address" env:"ADDRESS" default:":8484" description:"server listen address"`
		ReadTimeout     int    `long:"read-timeout" env:"READ_TIMEOUT" default:"5" description:"read timeout in seconds"`
		WriteTimeout    int    `long:"write-timeout" env:"WRITE_TIMEOUT" default:"30" description:"write timeout in seconds"`
		IdleTimeout     int    `long:"idle-timeout" env:"IDLE_TIMEOUT" default:"60" description:"idle timeout in seconds"`
		ShutdownTimeout int    `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"5" description:"graceful shutdown timeout in seconds"`
		BaseURL         string `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /secsplit)"`
		BodyLimit       int64  `long:"body-limit" env:"BODY_LIMIT" default:"1048576" description:"max request body size in bytes"`
		RequestsPerSec  int64  `long:"requests-per-sec" env:"REQUESTS_PER_SEC" default:"1000" description:"max requests per second"`
	} `group:"server" namespace:"server" env-namespace:"SECSPLIT_SERVER"`

	Auth struct {
		File      string `long:"file" env:"FILE" description:"path to auth config file (enables auth)"`
		HotReload bool   `long:"hot-reload" env:"HOT_RELOAD" description:"watch auth config file and reload on changes"`
		LoginTTL  int    `long:"login-ttl" env:"LOGIN_TTL" default:"1440" description:"login bearer TTL in minutes"`
	} `group:"auth" namespace:"auth" env-namespace:"SECSPLIT_AUTH"`

	Cache struct {
		Enabled bool `long:"enabled" env:"ENABLED" description:"enable in-memory LRU cache for the key store"`
		MaxKeys int  `long:"max-keys" env:"MAX_KEYS" default:"1000" description:"max number of cached shares"`
	} `group:"cache" namespace:"cache" env-namespace:"SECSPLIT_CACHE"`

	Debug   bool `long:"dbg" env:"SECSPLIT_DEBUG" description:"debug mode"`
	Version bool `long:"version" description:"show version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("secsplit %s\n", revision)

	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if opts.Version {
		os.Exit(0)
	}

	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel)

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log.Printf("[INFO] starting secsplit server on %s", opts.Server.Address)
	if opts.Auth.File != "" {
		log.Printf("[INFO] authentication enabled, config %s", opts.Auth.File)
	}
	if opts.DocDB == opts.KeyDB {
		log.Printf("[WARN] document and key stores share the same location %q, "+
			"both shares end up in one database", opts.DocDB)
	}

	codec, err := shares.New(opts.Capacity, shares.CryptoSource{})
	if err != nil {
		return fmt.Errorf("failed to initialize codec: %w", err)
	}

	// two independent stores, one per share channel
	docStore, err := store.New(opts.DocDB)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer docStore.Close()

	keyStore, err := store.New(opts.KeyDB)
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}
	defer keyStore.Close()

	var keys session.KeyStore = keyStore
	if opts.Cache.Enabled {
		cached, err := store.NewCached(keyStore, opts.Cache.MaxKeys)
		if err != nil {
			return fmt.Errorf("failed to initialize cache: %w", err)
		}
		defer cached.Close()
		keys = cached
		log.Printf("[INFO] key store cache enabled, max %d keys", opts.Cache.MaxKeys)
	}

	manager := session.NewManager(docStore, keys, codec)

	srv, err := server.New(manager, server.Config{
		Address:         opts.Server.Address,
		ReadTimeout:     time.Duration(opts.Server.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(opts.Server.WriteTimeout) * time.Second,
		IdleTimeout:     time.Duration(opts.Server.IdleTimeout) * time.Second,
		ShutdownTimeout: time.Duration(opts.Server.ShutdownTimeout) * time.Second,
		Version:         revision,
		AuthFile:        opts.Auth.File,
		AuthHotReload:   opts.Auth.HotReload,
		LoginTTL:        time.Duration(opts.Auth.LoginTTL) * time.Minute,
		BaseURL:         opts.Server.BaseURL,
		BodySizeLimit:   opts.Server.BodyLimit,
		RequestsPerSec:  opts.Server.RequestsPerSec,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func setupLogs() io.Writer {
	log.Setup(log.Msec)
	if opts.Debug {
		log.Setup(log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	return os.Stdout
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
