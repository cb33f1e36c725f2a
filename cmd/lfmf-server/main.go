// Command lfmf-server serves LFMF groundwave predictions over REST and gRPC.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/api"
	"github.com/signalsfoundry/groundwave/internal/config"
	"github.com/signalsfoundry/groundwave/internal/engine/native"
	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/observability"
	"github.com/signalsfoundry/groundwave/internal/rpc"
	"github.com/signalsfoundry/groundwave/internal/service"
	"github.com/signalsfoundry/groundwave/internal/store"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		config.Exitf("lfmf-server: %v", err)
	}
	log := logging.New(cfg.Log)

	eng, err := native.Open()
	if err != nil {
		config.Exitf("lfmf-server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, eng, log); err != nil {
		log.Error(context.Background(), "lfmf-server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or a listener fails. The engine is
// released after every server has stopped.
func run(ctx context.Context, cfg config.Server, eng core.Engine, log logging.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	engineMetrics, err := observability.NewEngineCollector(nil)
	if err != nil {
		return err
	}
	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		return err
	}

	client, err := core.NewClient(eng, log, core.WithMetricsRecorder(engineMetrics))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn(context.Background(), "engine close failed", logging.Err(err))
		}
	}()

	batch, err := core.NewBatchEvaluator(client, log, core.WithDefaultWorkers(cfg.Workers))
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithMaxPoints(cfg.MaxSweepPoints)}
	if path := cfg.StorePath(); path != "" {
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer closeDB(db, log)
		opts = append(opts, service.WithStore(store.NewSweepSQLite(db)))
		log.Info(ctx, "sweep persistence enabled", logging.String("path", path))
	}
	svc, err := service.New(client, batch, log, opts...)
	if err != nil {
		return err
	}

	errCh := make(chan error, 3)

	metricsSrv, err := serveHTTP(cfg.MetricsAddr, metricsMux(apiMetrics), "metrics", log, errCh)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	restSrv, err := serveHTTP(cfg.HTTPAddr, api.NewHandler(svc, log, apiMetrics).InitRoutes(), "rest", log, errCh)
	if err != nil {
		shutdownHTTP(metricsSrv)
		return err
	}

	grpcSrv, healthSrv, err := serveGRPC(cfg.GRPCAddr, svc, log, apiMetrics, errCh)
	if err != nil {
		shutdownHTTP(restSrv, metricsSrv)
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down lfmf-server")
	case runErr = <-errCh:
		log.Error(context.Background(), "server failed; shutting down", logging.Err(runErr))
	}

	if grpcSrv != nil {
		healthSrv.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		grpcSrv.GracefulStop()
	}
	shutdownHTTP(restSrv, metricsSrv)
	return runErr
}

func metricsMux(collector *observability.APICollector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}

func serveHTTP(addr string, handler http.Handler, name string, log logging.Logger, errCh chan<- error) (*http.Server, error) {
	if addr == "" {
		return nil, nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info(context.Background(), "serving "+name, logging.String("addr", lis.Addr().String()))
	return srv, nil
}

func serveGRPC(addr string, svc *service.Service, log logging.Logger, metrics *observability.APICollector, errCh chan<- error) (*grpc.Server, *health.Server, error) {
	if addr == "" {
		return nil, nil, nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	server, healthSrv := rpc.NewServer(svc, log, metrics)
	go func() {
		if err := server.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	log.Info(context.Background(), "serving grpc", logging.String("addr", lis.Addr().String()))
	return server, healthSrv, nil
}

func shutdownHTTP(servers ...*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if srv != nil {
			_ = srv.Shutdown(ctx)
		}
	}
}

func closeDB(db *sql.DB, log logging.Logger) {
	if err := db.Close(); err != nil {
		log.Warn(context.Background(), "database close failed", logging.Err(err))
	}
}
