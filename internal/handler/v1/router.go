// Package v1 is the HTTP surface of the booking core: JSON over gin,
// bearer-token auth, and the /api route tree.
package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medagenda/api/internal/config"
	"github.com/medagenda/api/internal/domain"
	"github.com/medagenda/api/pkg/auth"
	"github.com/medagenda/api/pkg/metrics"
)

type RouterDeps struct {
	Config           *config.Config
	Logger           *zap.Logger
	Metrics          *metrics.Collector
	Verifier         *auth.Verifier
	DB               *gorm.DB
	Appointments     *AppointmentHandler
	BlockedTimes     *BlockedTimeHandler
	ConsultationType *ConsultationTypeHandler
	Doctors          *DoctorHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Logger, deps.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.CORS.AllowedOrigins,
		AllowMethods: deps.Config.CORS.AllowedMethods,
		AllowHeaders: deps.Config.CORS.AllowedHeaders,
		MaxAge:       deps.Config.CORS.MaxAge,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		if deps.DB != nil {
			sqlDB, err := deps.DB.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Config.App.Name,
			"version": deps.Config.App.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api")

	// Public: browsing availability and the directory needs no account.
	api.GET("/appointments/available", deps.Appointments.Available)
	api.GET("/consultation-types", deps.ConsultationType.List)
	api.GET("/doctors", deps.Doctors.List)
	api.GET("/doctors/:id", deps.Doctors.Get)

	authed := api.Group("")
	authed.Use(RequireAuth(deps.Verifier))
	{
		authed.POST("/appointments/book", deps.Appointments.Book)
		authed.GET("/appointments", deps.Appointments.List)
		authed.GET("/appointments/:id", deps.Appointments.Get)
		authed.PUT("/appointments/:id", deps.Appointments.Edit)
		authed.PUT("/appointments/:id/cancel", deps.Appointments.Cancel)
		// The service rejects non-admin callers; registering here keeps
		// the response a 403 instead of a routing 404.
		authed.DELETE("/appointments/:id", deps.Appointments.Remove)
	}

	admin := api.Group("/admin")
	admin.Use(RequireAuth(deps.Verifier), RequireRole(domain.RoleAdmin))
	{
		admin.POST("/blocked-times", deps.BlockedTimes.Create)
		admin.GET("/blocked-times", deps.BlockedTimes.List)
		admin.DELETE("/blocked-times/:id", deps.BlockedTimes.Delete)

		admin.PUT("/appointments/:id", deps.Appointments.Edit)
		admin.DELETE("/appointments/:id", deps.Appointments.Remove)

		admin.POST("/consultation-types", deps.ConsultationType.Create)
		admin.PUT("/consultation-types/:id", deps.ConsultationType.Update)
		admin.DELETE("/consultation-types/:id", deps.ConsultationType.Delete)

		admin.POST("/doctors/:id/consultation-types/:typeId", deps.ConsultationType.AssignToDoctor)
		admin.DELETE("/doctors/:id/consultation-types/:typeId", deps.ConsultationType.UnassignFromDoctor)
	}

	return r
}
