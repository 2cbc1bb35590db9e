package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/fisiocare/booking-api/internal/handler/appointment"
	"github.com/fisiocare/booking-api/internal/handler/health"
	"github.com/fisiocare/booking-api/internal/handler/notification"
	"github.com/fisiocare/booking-api/internal/middleware"
	"github.com/fisiocare/booking-api/pkg/metrics"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	appointmentH  *appointment.Handler
	notificationH *notification.Handler
	healthH       *health.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	appointmentH *appointment.Handler,
	notificationH *notification.Handler,
	healthH *health.Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(m),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:        engine,
		auth:          auth,
		appointmentH:  appointmentH,
		notificationH: notificationH,
		healthH:       healthH,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)

	api.GET("/services", r.appointmentH.ListServiceTypes)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		appointments := protected.Group("/appointments")
		{
			appointments.POST("", r.appointmentH.CreateAppointment)
			appointments.GET("", r.appointmentH.ListAppointments)
			appointments.GET("/:id", r.appointmentH.GetAppointment)
			appointments.PATCH("/:id/status", r.appointmentH.TransitionAppointment)
			appointments.POST("/:id/cancel", r.appointmentH.CancelAppointment)
			appointments.POST("/:id/reopen", r.auth.RequireStaff(), r.appointmentH.ReopenAppointment)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", r.notificationH.ListNotifications)
			notifications.POST("/:id/read", r.notificationH.MarkAsRead)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
