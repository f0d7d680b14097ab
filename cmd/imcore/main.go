// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The imcore command connects a single account and prints what happens.
//
// Settings are read from the environment (optionally through a .env file)
// using the IMCORE_ prefix and may be overridden by flags.
// Lines read from standard input are commands:
//
//	msg <uid> <text>
//	status <status> [description]
//	version <uid>
//	join <room uid> <nick>
//	leave <room uid>
//	quit
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	xmpp "mellium.im/imcore"
	"mellium.im/imcore/metrics"
	"mellium.im/imcore/resolver"
	"mellium.im/imcore/watch"
)

const envPrefix = "IMCORE_"

type config struct {
	UID         string        `env:"UID"`
	Password    string        `env:"PASSWORD"`
	Server      string        `env:"SERVER"`
	Port        int           `env:"PORT" envDefault:"5222"`
	TLS         bool          `env:"TLS"`
	TLSPort     int           `env:"TLS_PORT" envDefault:"5223"`
	Resource    string        `env:"RESOURCE"`
	Charset     string        `env:"CHARSET" envDefault:"utf-8"`
	SASL        bool          `env:"SASL"`
	Plaintext   bool          `env:"PLAINTEXT"`
	Resolv      string        `env:"RESOLV_CONF" envDefault:"/etc/resolv.conf"`
	Timeout     time.Duration `env:"DNS_TIMEOUT" envDefault:"5s"`
	MetricsAddr string        `env:"METRICS_ADDR"`
	Debug       bool          `env:"DEBUG"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "imcore: %v\n", err)
		os.Exit(1)
	}
}

func parseConfig(args []string) (config, error) {
	var cfg config
	// A missing .env file is not an error.
	_ = godotenv.Load()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("imcore", flag.ContinueOnError)
	fs.StringVarP(&cfg.UID, "uid", "u", cfg.UID, "account uid, eg. jid:romeo@example.net")
	fs.StringVarP(&cfg.Password, "password", "p", cfg.Password, "account password")
	fs.StringVarP(&cfg.Server, "server", "s", cfg.Server, "server to connect to instead of the account domain")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "plain connection port")
	fs.BoolVar(&cfg.TLS, "tls", cfg.TLS, "connect with TLS")
	fs.IntVar(&cfg.TLSPort, "tls-port", cfg.TLSPort, "TLS connection port")
	fs.StringVarP(&cfg.Resource, "resource", "r", cfg.Resource, "resource to log in with")
	fs.StringVar(&cfg.Charset, "charset", cfg.Charset, "local charset")
	fs.BoolVar(&cfg.SASL, "sasl", cfg.SASL, "log in with SASL instead of jabber:iq:auth")
	fs.BoolVar(&cfg.Plaintext, "plaintext", cfg.Plaintext, "allow sending the password without TLS")
	fs.StringVar(&cfg.Resolv, "resolv-conf", cfg.Resolv, "nameserver configuration")
	fs.DurationVar(&cfg.Timeout, "dns-timeout", cfg.Timeout, "time to wait for each nameserver")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.UID == "" {
		return cfg, errors.New("no account uid given")
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	c := zap.NewProductionConfig()
	c.OutputPaths = []string{"stderr"}
	return c.Build()
}

func run(args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(promReg, "imcore")

	loop, err := watch.New(watch.Logger(logger.Named("watch")))
	if err != nil {
		return err
	}
	defer loop.Close()

	stub := resolver.NewStub(loop,
		resolver.ConfPath(cfg.Resolv),
		resolver.Timeout(cfg.Timeout),
		resolver.Cache(64, time.Hour),
		resolver.Logger(logger.Named("resolver")),
	)
	defer stub.Close()
	res := resolver.NewChain(stub, resolver.NewBlocking(loop, resolver.Logger(logger.Named("resolver"))))

	e := xmpp.NewEngine(loop, res,
		xmpp.Logger(logger.Named("xmpp")),
		xmpp.Metrics(m),
		xmpp.Bus(printer{w: os.Stdout}),
	)
	c := xmpp.Config{
		UID:               cfg.UID,
		Password:          cfg.Password,
		Server:            cfg.Server,
		Port:              cfg.Port,
		TLS:               cfg.TLS,
		TLSPort:           cfg.TLSPort,
		Resource:          cfg.Resource,
		Charset:           cfg.Charset,
		PlaintextPassword: cfg.Plaintext,
	}
	if cfg.SASL {
		c.Auth = xmpp.AuthSASL
	}
	s, err := e.AddSession(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	quit := make(chan struct{})
	go readCommands(os.Stdin, loop, s, quit, os.Stderr)
	g.Go(func() error {
		select {
		case <-quit:
			return errQuit
		case <-ctx.Done():
			return nil
		}
	})

	loop.Post(func() {
		if err := s.Connect(); err != nil {
			logger.Error("connecting", zap.Error(err))
		}
	})
	g.Go(func() error {
		err := loop.Run(ctx)
		// The loop has stopped so the engine may be used from here.
		e.Close()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
