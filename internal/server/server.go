package server

import (
	"context"
	"log/slog"
	"math"
	"meal-storefront/internal/handler"
	"meal-storefront/internal/middleware"
	"meal-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Options struct {
	AdminJWTSecret    string
	CheckoutRateLimit float64 // requests per second per client IP; 0 disables
}

type Server struct {
	echo            *echo.Echo
	log             *slog.Logger
	opts            Options
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	adminHandler    *handler.AdminHandler
	mealHandler     *handler.MealHandler
}

func NewServer(
	log *slog.Logger,
	opts Options,
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	refundService service.RefundService,
	orderService service.OrderService,
	mealService service.MealService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:            e,
		log:             log,
		opts:            opts,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		adminHandler:    handler.NewAdminHandler(refundService, orderService),
		mealHandler:     handler.NewMealHandler(mealService),
	}

	e.HTTPErrorHandler = s.errorHandler
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.ErrorContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/meals", s.mealHandler.ListMeals)

	// -------- checkout --------
	limit := s.checkoutLimiter()
	api.POST("/checkout-session", s.checkoutHandler.CreateCheckoutSession, limit...)
	api.GET("/checkout-session", s.checkoutHandler.GetCheckoutSession)
	api.POST("/bookings", s.checkoutHandler.CreateBooking, limit...)

	// -------- payment webhooks --------
	api.POST("/webhook", s.webhookHandler.PaymentWebhook)

	// -------- admin --------
	admin := api.Group("/admin", middleware.AdminAuth(s.opts.AdminJWTSecret))
	admin.POST("/refund", s.adminHandler.RefundOrder)
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.PATCH("/orders/:id/status", s.adminHandler.UpdateOrderStatus)
	admin.GET("/revenue", s.adminHandler.Revenue)
}

func (s *Server) checkoutLimiter() []echo.MiddlewareFunc {
	if s.opts.CheckoutRateLimit <= 0 {
		return nil
	}

	return []echo.MiddlewareFunc{echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(s.opts.CheckoutRateLimit),
			Burst: max(1, int(math.Ceil(s.opts.CheckoutRateLimit))),
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many checkout attempts, please retry shortly")
		},
	})}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
