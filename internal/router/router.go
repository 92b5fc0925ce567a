package router

import (
	"time"

	"playpos/internal/config"
	"playpos/internal/handler"
	"playpos/internal/middleware"
	"playpos/internal/repository"
	"playpos/internal/service"
	"playpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	lostCardFee, err := decimal.NewFromString(cfg.LostCardFee)
	if err != nil {
		lostCardFee = decimal.Zero
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	comboRepo := repository.NewComboRepository(db)
	tierRepo := repository.NewTimeTierRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)
	cashRepo := repository.NewCashRepository(db)
	stockMovRepo := repository.NewStockMovementRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	catalogSvc := service.NewCatalogService(productRepo, comboRepo, tierRepo, stockMovRepo, rdb)
	saleSvc := service.NewSaleService(saleRepo, productRepo, comboRepo, timeEntryRepo, stockMovRepo, catalogSvc, dispatcher, lostCardFee)
	returnSvc := service.NewReturnService(saleRepo, productRepo, comboRepo, stockMovRepo)
	timeEntrySvc := service.NewTimeEntryService(timeEntryRepo, saleRepo, catalogSvc, dispatcher)
	cashSvc := service.NewCashService(cashRepo, saleRepo, dispatcher, cfg.ReportEmail)

	// ── Handlers ─────────────────────────────────────────────────────────────
	catalogH := handler.NewCatalogHandler(catalogSvc)
	salesH := handler.NewSaleHandler(saleSvc)
	returnsH := handler.NewReturnHandler(returnSvc)
	timeEntriesH := handler.NewTimeEntryHandler(timeEntrySvc)
	cashH := handler.NewCashHandler(cashSvc)
	priceH := handler.NewPriceCheckHandler(productRepo, catalogSvc, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	// Price check — read-only, served from cache when possible
	r.GET("/v1/prices/:id", priceH.GetPrice)
	r.GET("/v1/time-price", priceH.GetTimePrice)

	v1 := r.Group("/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.POST("/products", catalogH.CreateProduct)
			catalog.GET("/products", catalogH.ListProducts)
			catalog.GET("/products/:id", catalogH.GetProduct)
			catalog.PUT("/products/:id", catalogH.UpdateProduct)
			catalog.DELETE("/products/:id", catalogH.DeactivateProduct)
			catalog.POST("/products/:id/stock", catalogH.AdjustStock)

			catalog.POST("/combos", catalogH.CreateCombo)
			catalog.GET("/combos", catalogH.ListCombos)
			catalog.GET("/combos/:id", catalogH.GetCombo)
			catalog.DELETE("/combos/:id", catalogH.DeactivateCombo)

			catalog.POST("/tiers", catalogH.CreateTier)
			catalog.GET("/tiers", catalogH.ListTiers)
			catalog.PUT("/tiers/:id", catalogH.UpdateTier)
			catalog.DELETE("/tiers/:id", catalogH.DeactivateTier)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.CreateFinalized)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
			sales.POST("/pending", salesH.CreatePending)
			sales.POST("/finalize", salesH.Finalize)
			sales.POST("/cancel", salesH.Cancel)
		}

		returns := v1.Group("/returns")
		{
			returns.POST("/partial", returnsH.Partial)
			returns.POST("/full", returnsH.Full)
		}

		entries := v1.Group("/time-entries")
		{
			entries.POST("/start", timeEntriesH.Start)
			entries.POST("/finalize", timeEntriesH.Finalize)
			entries.GET("", timeEntriesH.List)
		}

		cash := v1.Group("/cash")
		{
			cash.POST("/open", cashH.Open)
			cash.POST("/movements", cashH.Movement)
			cash.GET("/summary", cashH.Summary)
			cash.POST("/close", cashH.Close)
			cash.GET("/history", cashH.History)
			cash.GET("/:id", cashH.Get)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
