package main

import (
	"context"
	"log/slog"

	"revintel/internal/cache"
	"revintel/internal/config"
	"revintel/internal/infra/db"
	infraRepo "revintel/internal/infra/repository"
	"revintel/internal/logger"
	"revintel/internal/usecase"

	"gorm.io/gorm"
)

// コマンド共通の依存
type app struct {
	cfg   config.Config
	log   *slog.Logger
	db    *gorm.DB
	cache cache.AnalyticsCache

	customers *usecase.CustomerUsecase
	products  *usecase.ProductUsecase
	sales     *usecase.SaleUsecase
	analytics *usecase.AnalyticsUsecase
	audit     *usecase.AuditUsecase

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	config.LoadDotEnv(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.GoEnv, cfg.LogLevel)
	slog.SetDefault(log)

	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: gormDB}
	a.closers = append(a.closers, func() error { return db.Close(gormDB) })

	//集計キャッシュ（REDIS_ADDRがなければなし）
	a.cache = cache.NoopAnalyticsCache{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisAnalyticsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.WarnContext(ctx, "redis unavailable, analytics cache disabled", slog.Any("err", err))
			_ = rc.Close()
		} else {
			a.cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	saleRepo := infraRepo.NewSaleGormRepository(gormDB)
	queryRepo := infraRepo.NewSaleQueryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//Usecase生成
	clock := usecase.SystemClock{}
	a.customers = usecase.NewCustomerUsecase(txm, customerRepo, queryRepo, a.cache, clock, log)
	a.products = usecase.NewProductUsecase(txm, productRepo, inventoryRepo, a.cache, clock, log)
	a.sales = usecase.NewSaleUsecase(txm, saleRepo, a.cache, clock, log)
	a.analytics = usecase.NewAnalyticsUsecase(queryRepo, a.cache, cfg.CacheTTL, cfg.ReportLocation, log)
	a.audit = usecase.NewAuditUsecase(auditRepo)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", slog.Any("err", err))
		}
	}
}
