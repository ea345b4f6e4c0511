package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/intekaih/toystore-app-sub001/configs"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/cache"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/gateway"
	apihttp "github.com/intekaih/toystore-app-sub001/internal/adapter/http"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/http/middleware"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/kafka"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/queue"
	"github.com/intekaih/toystore-app-sub001/internal/adapter/repo"
	"github.com/intekaih/toystore-app-sub001/internal/logging"
	"github.com/intekaih/toystore-app-sub001/internal/security"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("bootstrap")
	log.Info("checkout-api: starting up")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	// infra
	stock := repo.NewMySQLStockLedger(db)
	catalog := repo.NewMySQLCatalog(db)
	carts := repo.NewMySQLCartRepo(db)
	orders := repo.NewMySQLOrderRepo(db)
	payments := repo.NewMySQLPaymentRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)

	gw := gateway.New(gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		MerchantID: cfg.Gateway.MerchantID,
		Secret:     cfg.Gateway.Secret,
		ReturnURL:  cfg.Gateway.ReturnURL,
	})
	guests := security.NewGuestSessions(cfg.Security.GuestSecret)

	// use cases
	cartSvc := usecase.NewCartService(carts, stock)
	assembler := usecase.NewOrderAssembler(carts, orders, stock, catalog, idem, producer, statusCache)
	canceller := usecase.NewCancelOrder(orders, stock, producer, statusCache)
	paymentSvc := usecase.NewPaymentService(orders, payments, gw, canceller, producer, statusCache)

	// fulfillment listener
	kafkaCancel, err := setupFulfillmentListener(cfg, orders, statusCache)
	if err != nil {
		return nil, nil, err
	}

	// handlers + router + middleware
	id := middleware.NewIdentity(cfg, guests)
	chh := apihttp.NewCartHandler(cartSvc, guests)
	oh := apihttp.NewOrderHandler(assembler, canceller, paymentSvc, orders, statusCache)
	ph := apihttp.NewPaymentHandler(paymentSvc)
	sh := apihttp.NewSessionHandler(guests)
	router := apihttp.NewRouter(chh, oh, ph, sh, id)

	cleanup := func() {
		kafkaCancel()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupFulfillmentListener(cfg configs.Config, orders usecase.OrderRepo, statusCache usecase.OrderCache) (context.CancelFunc, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		// Fulfillment events are optional in local runs.
		return func() {}, nil
	}
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	h := kafka.NewFulfillmentStatusHandler(orders, statusCache)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.FulfillmentTopic}, h.Handle)
	consumer.Logger = logging.New("kafka")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("fulfillment consumer stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		_ = grp.Close()
	}, nil
}
