package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/idempotency"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/memory"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/notify"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pedidos-api/internal/interfaces/http"
	"github.com/jhoicas/pedidos-api/pkg/config"
	"github.com/jhoicas/pedidos-api/pkg/jwt"
	"github.com/jhoicas/pedidos-api/pkg/logger"
	"github.com/jhoicas/pedidos-api/pkg/telemetry"
)

// stores puertos de persistencia según STORE_DRIVER.
type stores struct {
	companies repository.CompanyRepository
	users     repository.UserRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	txRunner  interface {
		orders.TxRunner
		usecase.StockTxRunner
	}
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// run arma y sirve la aplicación hasta SIGINT/SIGTERM. Los recursos abiertos se cierran
// con defer, también cuando un paso del arranque falla.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("configurar trazas: %w", err)
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("abrir almacenamiento: %w", err)
	}
	defer st.close()

	if cfg.App.StoreDriver == "memory" && cfg.Seed.Email != "" {
		if err := seedMemory(ctx, cfg, st, log); err != nil {
			return fmt.Errorf("sembrar almacenamiento en memoria: %w", err)
		}
	}

	// Notificaciones: archivo de log siempre, Kafka si hay brokers
	var notifyOut io.Writer = os.Stdout
	if cfg.Notify.LogFile != "" {
		f, err := os.OpenFile(cfg.Notify.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("abrir log de notificaciones %s: %w", cfg.Notify.LogFile, err)
		}
		defer f.Close()
		notifyOut = f
	}
	sinks := notify.MultiSink{notify.NewLogSink(notifyOut)}
	if len(cfg.Notify.KafkaBrokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info().Strs("brokers", cfg.Notify.KafkaBrokers).Str("topic", cfg.Notify.KafkaTopic).Msg("notificaciones a Kafka habilitadas")
	}
	dispatcher := notify.NewDispatcher(sinks, cfg.Notify.QueueSize, log)

	var idemStore httpRouter.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde; Idempotency-Key se reintentará por petición")
		}
		idemStore = idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL)
	}

	companyUC := usecase.NewCompanyUseCase(st.companies)
	productUC := usecase.NewProductUseCase(st.products, st.txRunner)
	createOrdersUC := orders.NewCreateBatchUseCase(st.txRunner, st.products, orders.BatchConfig{
		Precheck:   cfg.Orders.Precheck,
		MaxItems:   cfg.Orders.MaxItems,
		MaxRetries: cfg.Orders.MaxRetries,
	}, log)
	transitionUC := orders.NewTransitionUseCase(st.txRunner, dispatcher, log)
	getOrderUC := orders.NewGetOrderUseCase(st.orders)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en http://localhost:<port>/docs, solo si el archivo generado existe
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Pedidos API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:    companyUC,
		ProductUC:    productUC,
		CreateOrders: createOrdersUC,
		TransitionUC: transitionUC,
		GetOrder:     getOrderUC,
		Idempotency:  idemStore,
		JWTSecret:    cfg.JWT.Secret,
		JWTIssuer:    cfg.JWT.Issuer,
		Logger:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Después del servidor: ya no entran transiciones nuevas
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notificaciones pendientes sin entregar")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("cerrar exportador de trazas")
	}
	return nil
}

// seedMemory crea la empresa y el usuario de SEED_* y registra un token para ese usuario.
func seedMemory(ctx context.Context, cfg *config.Config, st *stores, log *logger.Logger) error {
	bootstrap := usecase.NewBootstrapUseCase(st.companies, st.users)
	company, user, err := bootstrap.Run(ctx, usecase.BootstrapInput{
		CompanyName: cfg.Seed.CompanyName,
		Email:       cfg.Seed.Email,
		Role:        cfg.Seed.Role,
	})
	if err != nil {
		return err
	}
	ttl := time.Duration(cfg.JWT.Expiration) * time.Minute
	token, err := jwt.Generate(cfg.JWT.Secret, user.ID, company.ID, user.Role, cfg.JWT.Issuer, ttl)
	if err != nil {
		return err
	}
	log.Info().
		Str("company_id", company.ID).
		Str("user_id", user.ID).
		Str("role", user.Role).
		Str("token", token).
		Msg("usuario de desarrollo creado en memoria")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver == "memory" {
		s := memory.NewStore()
		log.Warn().Msg("usando almacenamiento en memoria: los datos no persisten")
		return &stores{
			companies: memory.NewCompanyRepository(s),
			users:     memory.NewUserRepository(s),
			products:  memory.NewProductRepository(s),
			orders:    memory.NewOrderRepository(s),
			txRunner:  memory.NewTxRunner(s),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &stores{
		companies: postgres.NewCompanyRepository(pool),
		users:     postgres.NewUserRepository(pool),
		products:  postgres.NewProductRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		txRunner:  postgres.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}
