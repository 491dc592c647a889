package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache/impl/nats"
	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/pkg/db/migrate"
	"github.com/mpapenbr/track-dominance/pkg/server"
	"github.com/mpapenbr/track-dominance/pkg/service"
	"github.com/mpapenbr/track-dominance/pkg/utils"
)

var (
	appConfig   config.Config // holds processed config values
	assetsHost  string
	autoMigrate bool
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-addr",
		"",
		"HTTPS server listen address (requires a certificate)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"path to TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"path to TLS key")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"path to the traefik acme file (instead of --tls-cert and --tls-key)")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-cert-domain",
		"",
		"domain to look up in the traefik acme file")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.RunCacheTTL,
		"run-cache-ttl",
		"10m",
		"duration computed runs are kept in memory")
	cmd.Flags().Float64Var(&appConfig.QuickLapThreshold,
		"threshold",
		1.07,
		"only laps within this factor of the fastest lap are compared (0 disables)")
	cmd.Flags().BoolVar(&appConfig.Store,
		"store",
		false,
		"store computed runs in the database")
	cmd.Flags().BoolVar(&autoMigrate,
		"migrate",
		false,
		"apply database migrations on startup")
	cmd.Flags().StringVar(&assetsHost,
		"assets-host",
		"",
		"host serving the echarts javascript assets")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := []server.Option{
		server.WithSchedule(env.Source),
		server.WithDominance(service.NewDominanceService(env.Source,
			service.WithQuickLapThreshold(appConfig.QuickLapThreshold))),
		server.WithCacheStats(env.Store),
		server.WithAssetsHost(assetsHost),
		server.WithRunTTL(parseDuration(config.RunCacheTTL, 10*time.Minute)),
	}
	var pool *pgxpool.Pool
	if config.DB != "" {
		if autoMigrate {
			if err := migrate.MigrateDB(config.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		pool = cmdutil.InitDB()
		defer pool.Close()
		opts = append(opts, server.WithDB(pool, appConfig.Store))
	}

	handler := h2c.NewHandler(server.New(opts...).Handler(), &http2.Server{})
	servers := []*http.Server{}
	errChan := make(chan error, 2)

	//nolint:gosec // by design
	plain := &http.Server{
		Addr:    config.ServerAddr,
		Handler: handler,
	}
	servers = append(servers, plain)
	go func() {
		log.Info("Starting HTTP server", log.String("addr", config.ServerAddr))
		errChan <- plain.ListenAndServe()
	}()

	if config.TLSServerAddr != "" {
		tlsConfig := NewTLSConfigProvider(ctx)
		if tlsConfig == nil {
			return errors.New("tls-addr requires a valid certificate")
		}
		//nolint:gosec // by design
		secure := &http.Server{
			Addr:      config.TLSServerAddr,
			Handler:   handler,
			TLSConfig: tlsConfig,
		}
		servers = append(servers, secure)
		go func() {
			log.Info("Starting HTTPS server", log.String("addr", config.TLSServerAddr))
			errChan <- secure.ListenAndServeTLS("", "")
		}()
	}
	log.Info("Server started")
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", log.String("addr", s.Addr), log.ErrorField(err))
		}
	}
	log.Info("Server terminated")
	return nil
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", s), log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout := parseDuration(config.WaitForServices, 60*time.Second)

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTCP(postgresAddr)
	}
	if config.CacheType == string(nats.StoreTypeNats) {
		if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
			wg.Add(1)
			go checkTCP(natsAddr)
		}
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}
