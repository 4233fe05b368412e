package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bark-labs/push-relay/internal/config"
	"github.com/bark-labs/push-relay/internal/delivery"
	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/registry"
	"github.com/bark-labs/push-relay/internal/service"
)

const msgInvalidSubscription = "Subscription object is missing or invalid"

// KeyProvider exposes the public half of the VAPID identity.
type KeyProvider interface {
	PublicKey() (string, error)
	Ready() bool
}

// Server wires HTTP handlers.
type Server struct {
	app         *fiber.App
	cfg         *config.Config
	registry    *registry.Registry
	keys        KeyProvider
	dispatchSvc *service.DispatchService
	logSvc      *service.DeliveryLogService
	authSvc     *service.AuthService
	logger      *slog.Logger
}

// New builds a server instance.
func New(cfg *config.Config, reg *registry.Registry, keys KeyProvider, dispatchSvc *service.DispatchService, logSvc *service.DeliveryLogService, authSvc *service.AuthService, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:           cfg.HTTP.ReadTimeout,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		AppName:               "push-relay",
		DisableStartupMessage: true,
	})
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		app:         app,
		cfg:         cfg,
		registry:    reg,
		keys:        keys,
		dispatchSvc: dispatchSvc,
		logSvc:      logSvc,
		authSvc:     authSvc,
		logger:      logger,
	}
	s.registerRoutes()
	return s
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	s.logger.Info("server started", slog.String("addr", s.cfg.ListenAddr()))
	return s.app.Listen(s.cfg.ListenAddr())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())

	s.app.Get("/healthz", s.handleHealth)

	s.app.Post("/auth/login", s.handleLogin)
	s.app.Get("/auth/profile", s.handleProfile)

	api := s.app.Group("/api")
	api.Get("/vapid-public-key", s.handlePublicKey)
	api.Post("/subscribe", s.handleSubscribe)
	api.Post("/send-notification", s.handleBroadcast)
	api.Post("/send-notification/*", s.handleSendOne)
	api.Get("/subscriptions", s.handleListSubscriptions)
	api.Delete("/subscriptions/*", s.handleUnsubscribe)

	deliveries := api.Group("/deliveries", s.requireAuth)
	deliveries.Get("/", s.handleDeliveryList)
	deliveries.Get("/count/status", s.handleDeliveryCountStatus)
	deliveries.Get("/count/date", s.handleDeliveryCountDate)

	// Pre-/api routes kept for older clients
	s.app.Get("/vapid-public-key", s.handlePublicKey)
	s.app.Post("/subscribe", s.handleLegacySubscribe)
	s.app.Post("/send-notification", s.handleBroadcast)

	s.serveFrontend()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	vapid := "uninitialized"
	if s.keys.Ready() {
		vapid = "ready"
	}
	return c.JSON(model.StatusRes{
		Status:        "ok",
		Subscriptions: s.registry.Count(),
		VAPID:         vapid,
	})
}

func (s *Server) handlePublicKey(c *fiber.Ctx) error {
	key, err := s.keys.PublicKey()
	if err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(model.Error(err.Error()))
	}
	return c.JSON(fiber.Map{"publicKey": key})
}

func (s *Server) handleSubscribe(c *fiber.Ctx) error {
	if err := s.subscribe(c); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error(msgInvalidSubscription))
	}
	return c.Status(http.StatusCreated).JSON(model.Success("Subscription added successfully", nil))
}

func (s *Server) handleLegacySubscribe(c *fiber.Ctx) error {
	if err := s.subscribe(c); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error(msgInvalidSubscription))
	}
	key, _ := s.keys.PublicKey()
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"message":   "Subscription added successfully",
		"publicKey": key,
	})
}

func (s *Server) subscribe(c *fiber.Ctx) error {
	var sub model.Subscription
	if err := parseBody(c, &sub); err != nil {
		return err
	}
	if err := s.registry.Add(sub); err != nil {
		return err
	}
	s.logger.Info("new subscription received",
		slog.String("endpoint", model.RedactEndpoint(sub.Endpoint)),
		slog.Int("subscriptions", s.registry.Count()),
	)
	return nil
}

func (s *Server) handleBroadcast(c *fiber.Ctx) error {
	var req model.NotificationRequest
	if err := parseBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("Notification request is malformed"))
	}
	report, err := s.dispatchSvc.Broadcast(context.Background(), req)
	if err != nil {
		if errors.Is(err, delivery.ErrNoTargets) {
			return c.Status(http.StatusNotFound).JSON(model.Error("No subscriptions found"))
		}
		s.logger.Error("error sending notifications", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(model.ErrorWithDetail("Failed to send notifications", err.Error()))
	}
	if report.Failed() {
		first := report.OtherFailures[0]
		resp := model.ErrorWithDetail("Failed to send notifications", first.Error)
		resp.Data = report
		return c.Status(http.StatusInternalServerError).JSON(resp)
	}
	msg := fmt.Sprintf("Notifications sent successfully to %d subscribers", report.SuccessCount)
	return c.JSON(model.Success(msg, report))
}

func (s *Server) handleSendOne(c *fiber.Ctx) error {
	endpoint := decodePathSegment(c.Params("*"))
	if strings.TrimSpace(endpoint) == "" {
		return c.Status(http.StatusBadRequest).JSON(model.Error("endpoint is required"))
	}
	var req model.NotificationRequest
	if err := parseBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("Notification request is malformed"))
	}
	err := s.dispatchSvc.SendTo(context.Background(), endpoint, req)
	switch {
	case err == nil:
		return c.JSON(model.Success("Notification sent successfully", nil))
	case errors.Is(err, registry.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(model.Error("Subscription not found for the given endpoint"))
	case errors.Is(err, delivery.ErrGone):
		return c.Status(http.StatusGone).JSON(model.Error("Subscription has expired or is no longer valid"))
	default:
		s.logger.Error("error sending notification", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(model.ErrorWithDetail("Failed to send notification", err.Error()))
	}
}

func (s *Server) handleListSubscriptions(c *fiber.Ctx) error {
	views := s.registry.Views()
	return c.JSON(fiber.Map{
		"count":         len(views),
		"subscriptions": views,
	})
}

func (s *Server) handleUnsubscribe(c *fiber.Ctx) error {
	endpoint := decodePathSegment(c.Params("*"))
	if !s.registry.Remove(endpoint) {
		return c.Status(http.StatusNotFound).JSON(model.Error("Subscription not found for the given endpoint"))
	}
	s.logger.Info("subscription removed", slog.String("endpoint", model.RedactEndpoint(endpoint)))
	return c.JSON(model.Success("Subscription removed successfully", nil))
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("malformed login request"))
	}
	if !s.authSvc.Enabled() {
		return c.JSON(model.Success("login not required", fiber.Map{
			"token":    "",
			"enabled":  false,
			"username": "guest",
		}))
	}
	token, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Error(err.Error()))
	}
	return c.JSON(model.Success("logged in", fiber.Map{
		"token":    token,
		"enabled":  true,
		"username": s.authSvc.Username(),
	}))
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	if !s.authSvc.Enabled() {
		return c.JSON(model.Success("ok", fiber.Map{
			"enabled":  false,
			"username": "guest",
		}))
	}
	claims, err := s.authenticate(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Error(err.Error()))
	}
	return c.JSON(model.Success("ok", fiber.Map{
		"enabled":  true,
		"username": claims.Username,
	}))
}

func (s *Server) handleDeliveryList(c *fiber.Ctx) error {
	page, err := s.logSvc.Query(c.UserContext(), parseLogFilter(c))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(model.Error(err.Error()))
	}
	return c.JSON(model.Success("ok", page))
}

func (s *Server) handleDeliveryCountStatus(c *fiber.Ctx) error {
	begin, end := parseTimeRange(c)
	data, err := s.logSvc.CountByStatus(c.UserContext(), begin, end)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(model.Error(err.Error()))
	}
	return c.JSON(model.Success("ok", data))
}

func (s *Server) handleDeliveryCountDate(c *fiber.Ctx) error {
	begin, end := parseTimeRange(c)
	data, err := s.logSvc.CountByDate(c.UserContext(), c.Query("dateType", "day"), begin, end)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(model.Error(err.Error()))
	}
	return c.JSON(model.Success("ok", data))
}

func (s *Server) serveFrontend() {
	dir := strings.TrimSpace(s.cfg.Frontend.Dir)
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	s.app.Static("/", dir, fiber.Static{
		Index:    "index.html",
		Compress: true,
	})
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if !s.authSvc.Enabled() {
		return c.Next()
	}
	claims, err := s.authenticate(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(model.Error(err.Error()))
	}
	c.Locals("username", claims.Username)
	return c.Next()
}

func (s *Server) authenticate(c *fiber.Ctx) (*service.Claims, error) {
	token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, errors.New("not logged in")
	}
	claims, err := s.authSvc.Validate(token)
	if err != nil {
		return nil, errors.New("session expired or invalid")
	}
	return claims, nil
}

// parseBody decodes a JSON body; an empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(v)
}

func decodePathSegment(value string) string {
	if value == "" {
		return value
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

func parseLogFilter(c *fiber.Ctx) model.DeliveryLogFilter {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "10"))
	begin, end := parseTimeRange(c)
	return model.DeliveryLogFilter{
		Endpoint:  c.Query("endpoint"),
		BatchID:   c.Query("batchId"),
		Status:    c.Query("status"),
		BeginTime: begin,
		EndTime:   end,
		Page:      page,
		PageSize:  pageSize,
	}
}

func parseTimeRange(c *fiber.Ctx) (*time.Time, *time.Time) {
	return parseTime(c.Query("beginTime")), parseTime(c.Query("endTime"))
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
