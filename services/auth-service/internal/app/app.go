// Package app wires the auth service together and runs its HTTP and gRPC
// servers until the process is asked to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/config"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/handler"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/model"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/repository"
	"github.com/IsaacNewtonTingo/nikopeshe-api/services/auth-service/internal/usecase"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/database"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/discovery"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/interceptor"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/lock"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/mailer"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/security"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/utilities"
	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/validation"
)

type App struct {
	cfg    *config.AuthServiceConfig
	logger *zerolog.Logger

	mongoClient  *mongo.Client
	redisClient  *redis.Client
	router       *chi.Mux
	grpcServer   *grpc.Server
	healthServer *health.Server
	registrar    *discovery.ConsulRegistrar
}

// NewApp connects to the backing stores and builds every layer of the service.
func NewApp(ctx context.Context, cfg *config.AuthServiceConfig, logger *zerolog.Logger) (_ *App, err error) {
	mongoClient, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	app := &App{cfg: cfg, logger: logger, mongoClient: mongoClient}
	defer func() {
		if err != nil {
			app.closeClients(ctx)
		}
	}()

	locker, err := app.newLocker(ctx)
	if err != nil {
		return nil, err
	}

	validator, err := validation.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	userRepo := repository.NewUserMongoRepository(ctx, logger, db)
	verificationRepo := repository.NewVerificationTokenMongoRepository(
		ctx, logger, db, model.PurposeEmailVerification, cfg.Code.Retention,
	)
	passwordResetRepo := repository.NewVerificationTokenMongoRepository(
		ctx, logger, db, model.PurposePasswordReset, cfg.Code.Retention,
	)
	emailChangeRepo := repository.NewVerificationTokenMongoRepository(
		ctx, logger, db, model.PurposeEmailChange, cfg.Code.Retention,
	)

	hasher := security.NewHasher()
	mail := mailer.NewMailer(logger)

	emailVerificationUsecase := usecase.NewEmailVerificationUsecase(
		userRepo, verificationRepo, hasher, mail, locker, logger, cfg,
	)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		userRepo, passwordResetRepo, hasher, mail, locker, logger, cfg,
	)
	emailChangeUsecase := usecase.NewEmailChangeUsecase(
		userRepo, emailChangeRepo, hasher, mail, locker, logger, cfg,
	)
	accountUsecase := usecase.NewAccountUsecase(userRepo, hasher, emailVerificationUsecase)

	app.router = handler.NewRouter(logger)
	handler.NewUserHTTPHandler(
		app.router,
		accountUsecase,
		emailVerificationUsecase,
		passwordResetUsecase,
		emailChangeUsecase,
		validator,
		logger,
	)

	app.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(
		interceptor.NewLoggingInterceptor(logger, []string{grpc_health_v1.Health_Check_FullMethodName}),
	))
	app.healthServer = utilities.RegisterHealthServer(app.grpcServer, cfg.Name)

	if cfg.Consul.Addr != "" {
		app.registrar, err = discovery.NewConsulRegistrar(logger, cfg.Consul.Addr)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// newLocker returns a Redis backed locker when Redis is configured.
func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Warn().Msg("REDIS_ADDR is not set, code requests are not serialized across replicas")
		return lock.NoopLocker{}, nil
	}

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		_ = a.redisClient.Close()
		a.redisClient = nil
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return lock.NewRedisLocker(a.logger, a.redisClient, lock.Options{
		TTL:  a.cfg.Redis.LockTTL,
		Wait: a.cfg.Redis.LockWait,
	}), nil
}

func (a *App) service() discovery.Service {
	return discovery.Service{
		Name:            a.cfg.Name,
		Address:         a.cfg.Consul.ServiceAddress,
		HTTPPort:        a.cfg.HTTP.Port,
		GRPCPort:        a.cfg.GRPC.Port,
		Tags:            []string{"http", "grpc"},
		CheckInterval:   a.cfg.Consul.CheckInterval,
		DeregisterAfter: a.cfg.Consul.DeregisterAfter,
	}
}

func (a *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs
		a.logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()
}

// Run serves HTTP and gRPC until ctx is done, a signal arrives or a server
// fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.initSignalHandler(cancel)

	grpcListener, err := net.Listen("tcp", a.cfg.GRPC.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.GRPC.Addr(), err)
	}

	httpServer := &http.Server{
		Addr:         a.cfg.HTTP.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	var (
		wg      sync.WaitGroup
		runErr  error
		errOnce sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		a.logger.Info().Str("addr", grpcListener.Addr().String()).Msg("grpc server listening")
		if err := a.grpcServer.Serve(grpcListener); err != nil {
			fail(fmt.Errorf("grpc server: %w", err))
		}
	}()

	if a.registrar != nil {
		if err := a.registrar.Register(a.service()); err != nil {
			a.logger.Error().Err(err).Msg("failed to register with consul")
		}
	}

	<-ctx.Done()
	a.shutdown(httpServer)
	wg.Wait()

	return runErr
}

func (a *App) shutdown(httpServer *http.Server) {
	a.healthServer.Shutdown()

	if a.registrar != nil {
		if err := a.registrar.Deregister(a.service()); err != nil {
			a.logger.Error().Err(err).Msg("failed to deregister from consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("failed to shut down http server")
	}
	a.grpcServer.GracefulStop()

	a.closeClients(shutdownCtx)
}

// closeClients releases the Redis and Mongo connections.
func (a *App) closeClients(ctx context.Context) {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error().Err(err).Msg("failed to disconnect from mongo")
		}
	}
}
