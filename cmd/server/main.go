package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"

	"sparkbridge/internal/backend"
	"sparkbridge/internal/config"
	"sparkbridge/internal/events"
	"sparkbridge/internal/logging"
	"sparkbridge/internal/payments"
	"sparkbridge/internal/quote"
	"sparkbridge/internal/rpc"
	"sparkbridge/internal/store"
)

func main() {
	configPath := flag.String("config", "sparkbridge.yaml", "Configuration file path")
	addr := flag.String("addr", "", "gRPC listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Internal.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	logging.SetLevel(cfg.LogLevel)

	// Initialize store
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logging.Internal.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	// Initialize backend - use the Spark node API if configured, otherwise mock
	var be backend.Backend
	if cfg.SparkAPIURL != "" {
		sparkClient, err := backend.NewSparkClient(backend.SparkConfig{
			APIURL: cfg.SparkAPIURL,
			APIKey: cfg.SparkAPIKey,
		})
		if err != nil {
			logging.Internal.Fatalf("failed to connect to spark node: %v", err)
		}
		be = sparkClient
		logging.Internal.Printf("connected to spark node at %s", cfg.SparkAPIURL)
	} else {
		be = backend.NewMockBackend()
		logging.Internal.Println("using mock backend (set SPARK_API_URL for real payments)")
	}
	defer be.Close()

	// Probe capabilities once; they are static for the process lifetime.
	settings, err := be.GetSettings(context.Background())
	if err != nil {
		logging.Internal.Fatalf("failed to fetch backend settings: %v", err)
	}
	logging.Internal.Printf("backend capabilities: bolt11=%v spark=%v amountless=%v", settings.Bolt11, settings.Spark, settings.Amountless)

	// Initialize services
	paymentsSvc := payments.NewService(be, st, settings, cfg.SendTimeout)
	quoteEngine := quote.NewEngine(be, settings, cfg.QuoteTTL)
	bridge := events.NewBridge(be)

	// Restore persisted references (restart recovery)
	if err := paymentsSvc.RestoreIncomingRefs(context.Background()); err != nil {
		logging.Internal.Printf("warning: failed to restore payment references: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the event bridge
	go bridge.Run(ctx)

	// Metrics endpoint, if configured
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logging.Internal.Printf("serving metrics on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logging.Internal.Printf("metrics server error: %v", err)
			}
		}()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			rpc.UnaryLoggingInterceptor(),
			rpc.UnaryRateLimitInterceptor(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		),
		grpc.StreamInterceptor(rpc.StreamLoggingInterceptor()),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.KeepaliveTime,
			Timeout: cfg.KeepaliveTimeout,
		}),
	}
	if cfg.TLSEnable {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertPath, cfg.TLSKeyPath)
		if err != nil {
			logging.Internal.Fatalf("failed to load TLS credentials: %v", err)
		}
		opts = append(opts, grpc.Creds(creds))
		logging.Internal.Println("TLS enabled")
	}

	grpcServer := grpc.NewServer(opts...)
	rpc.RegisterPaymentProcessorServer(grpcServer, rpc.NewServer(settings, quoteEngine, paymentsSvc, bridge))

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logging.Internal.Fatalf("failed to listen on %s: %v", cfg.ListenAddr, err)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logging.Internal.Println("shutting down...")
		cancel()

		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			grpcServer.Stop()
		}
	}()

	logging.Internal.Printf("starting server on %s", cfg.ListenAddr)
	if err := grpcServer.Serve(lis); err != nil {
		logging.Internal.Fatalf("server error: %v", err)
	}
}
