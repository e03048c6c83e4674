package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nathan2412/project-api/internal/config"
	"github.com/Nathan2412/project-api/internal/domain/model"
	"github.com/Nathan2412/project-api/internal/handler"
	"github.com/Nathan2412/project-api/internal/infra/broker"
	"github.com/Nathan2412/project-api/internal/infra/db"
	"github.com/Nathan2412/project-api/internal/infra/rates"
	"github.com/Nathan2412/project-api/internal/infra/redisx"
	infraRepo "github.com/Nathan2412/project-api/internal/infra/repository"
	"github.com/Nathan2412/project-api/internal/server"
	"github.com/Nathan2412/project-api/internal/usecase"
	"github.com/Nathan2412/project-api/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(user model.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envはあれば読む
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := util.InitLogger(cfg.GoEnv); err != nil {
		panic(err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//redis（任意）。無ければキャッシュなしで動く。
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisx.New(cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", zap.Error(err))
			rdb = nil
		}
	}

	//kafka（任意）。無ければイベント発行なしで動く。
	var events usecase.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := broker.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() { _ = producer.Close() }()
		events = broker.NewOrderEvents(producer, logger)
	}

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	hasher := usecase.NewBcryptPasswordHasher(12)
	issuer := &jwtIssuer{secret: []byte(cfg.JWTSecret), accessTTL: 24 * time.Hour}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, hasher, issuer, clock)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, events, logger)
	orderUC := usecase.NewOrderUsecase(txManager, events)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, idGen, events, logger)

	ratesClient := rates.NewClient(cfg.RatesBaseURL, rdb, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC, checkoutUC),
		Order:    handler.NewOrderHandler(orderUC),
		Payment:  handler.NewPaymentHandler(paymentUC, cfg.PaymentWebhookSecret),
		External: handler.NewExternalHandler(ratesClient),
	}

	e := server.New(cfg, handlers, logger)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting api", zap.String("addr", addr))
	if err := server.Start(ctx, e, addr, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
