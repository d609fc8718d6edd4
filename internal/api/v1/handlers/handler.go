package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/access"
	"taskboard/internal/apperr"
	"taskboard/internal/history"
	"taskboard/internal/ordering"
	"taskboard/internal/token"
	ws "taskboard/internal/websocket"
	"taskboard/pkg/logger"
)

// Handler carries every dependency the API needs. Constructed once in main
// and shared across requests; no package-level state.
type Handler struct {
	DB        *sql.DB
	Redis     *redis.Client
	Validate  *validator.Validate
	Tokens    *token.Service
	Access    *access.Checker
	Order     *ordering.Engine
	History   *history.Recorder
	Hub       *ws.Hub
	UploadDir string

	ctx context.Context
}

func New(db *sql.DB, rdb *redis.Client, tokens *token.Service, hub *ws.Hub, uploadDir string) *Handler {
	return &Handler{
		DB:        db,
		Redis:     rdb,
		Validate:  validator.New(),
		Tokens:    tokens,
		Access:    access.NewChecker(&access.SQLStore{DB: db}),
		Order:     ordering.NewEngine(db),
		History:   history.NewRecorder(&history.SQLStore{DB: db}, logger.ErrorLogger),
		Hub:       hub,
		UploadDir: uploadDir,
		ctx:       context.Background(),
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func role(c *fiber.Ctx) string {
	r, _ := c.Locals("role").(string)
	return r
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func okMessage(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{"success": true, "message": message})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// fail renders err through the taxonomy. Unclassified errors are logged and
// masked as a 500.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if apperr.KindOf(err) == apperr.Internal {
		logger.ErrorLogger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Error(err))
	}
	return c.Status(apperr.Status(err)).JSON(fiber.Map{
		"success": false,
		"error":   apperr.Message(err),
	})
}

func (h *Handler) parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Wrap(apperr.Validation, "Bad request", err)
	}
	if err := h.Validate.Struct(req); err != nil {
		return apperr.Wrap(apperr.Validation, "Validation error: "+err.Error(), err)
	}
	return nil
}

// Board cache. Failures are non-fatal: the cache is an optimization, the
// database stays authoritative.

func boardCacheKey(projectID string) string {
	return fmt.Sprintf("board:%s", projectID)
}

func taskCacheKey(taskID string) string {
	return fmt.Sprintf("task:%s", taskID)
}

func (h *Handler) cacheSet(key string, value []byte) {
	if err := h.Redis.Set(h.ctx, key, value, time.Hour).Err(); err != nil {
		logger.ErrorLogger.Error("Redis set error", zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) cacheGet(key string) ([]byte, bool) {
	cached, err := h.Redis.Get(h.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return cached, true
}

func (h *Handler) cacheDel(keys ...string) {
	if err := h.Redis.Del(h.ctx, keys...).Err(); err != nil {
		logger.ErrorLogger.Error("Redis del error", zap.Error(err))
	}
}

// invalidateBoard drops the cached grouped view after any mutation of the
// project's tasks or columns.
func (h *Handler) invalidateBoard(projectID string, taskIDs ...string) {
	keys := []string{boardCacheKey(projectID)}
	for _, id := range taskIDs {
		keys = append(keys, taskCacheKey(id))
	}
	h.cacheDel(keys...)
}
