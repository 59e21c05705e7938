package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/saloneverid/internal/config"
	"github.com/example/saloneverid/internal/grpcclient"
	"github.com/example/saloneverid/internal/handlers"
	"github.com/example/saloneverid/internal/imagedecoder"
	"github.com/example/saloneverid/internal/logging"
	"github.com/example/saloneverid/internal/metrics"
	"github.com/example/saloneverid/internal/repository"
	"github.com/example/saloneverid/internal/usecase"
	"github.com/example/saloneverid/internal/verification"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	provider, closer, err := buildProvider(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to build verification provider", zap.Error(err))
	}
	defer closer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repo := repository.NewVerificationRepository()
	uc := usecase.NewVerificationUseCase(repo, provider, imagedecoder.NewDecoder(cfg.MaxImagePixels), m, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger))
	r.GET("/metrics", gin.WrapH(m.Handler()))
	handlers.RegisterRoutes(r, uc, cfg.MaxBodyBytes)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("KYC API listening", zap.String("addr", cfg.HTTPAddr), zap.String("provider", provider.Name()))
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildProvider selects the verification provider named in the config. The
// returned closer releases the vision connection for the real provider.
func buildProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (verification.Provider, io.Closer, error) {
	switch cfg.VerificationProvider {
	case config.ProviderMock:
		return verification.NewMockProvider(), nopCloser{}, nil
	case config.ProviderReal:
		client, conn, err := grpcclient.DialVision(ctx, cfg.VisionAddr, cfg.VisionTimeout, logger)
		if err != nil {
			return nil, nil, err
		}
		return verification.NewRealProvider(client, logger), conn, nil
	default:
		return nil, nil, fmt.Errorf("unknown verification provider %q", cfg.VerificationProvider)
	}
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
