package handler

import (
	"github.com/memorialqr/internal/config"
	"github.com/memorialqr/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	cfg         config.AppConfig
	auth        *service.AuthService
	memorials   *service.MemorialService
	condolences *service.CondolenceService
	galleries   *service.GalleryService
	timelines   *service.TimelineService
	analytics   *service.AnalyticsService
	qr          *service.QRService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, cfg config.AppConfig) *API {
	memorialService := service.NewMemorialService(db)

	analyticsService := service.NewAnalyticsService(db)
	if cfg.GeoLookupEnabled {
		analyticsService = analyticsService.WithGeoResolver(service.NewGeoService())
	}

	return &API{
		db:          db,
		cfg:         cfg,
		auth:        service.NewAuthService(db, cfg.SecretKey, cfg.AccessTokenTTL),
		memorials:   memorialService,
		condolences: service.NewCondolenceService(db, memorialService),
		galleries:   service.NewGalleryService(db, memorialService, cfg.UploadDir),
		timelines:   service.NewTimelineService(db, memorialService, cfg.UploadDir),
		analytics:   analyticsService,
		qr:          service.NewQRService(cfg.FrontendURL),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
