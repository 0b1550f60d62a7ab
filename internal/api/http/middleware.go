package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/observability"
	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// MiddlewareConfig configures the global middleware chain.
type MiddlewareConfig struct {
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeout    time.Duration
	CORSOrigin string
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger sits outside the error renderer so it records the final status.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app.Use(requestid.New())
	if cfg.CORSOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigin,
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowMethods:     "GET,POST,PATCH,OPTIONS",
		}))
	}
	app.Use(observability.RequestLogger(logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(routeOf(c), c.Method(), domainErr.Code)
				body := fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					body["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("path", c.Path()),
						zap.String("code", domainErr.Code),
						zap.NamedError("cause", domainErr.Err),
					)
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(fiber.Map{"error": body})
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also translates framework errors such as unmatched routes or
// oversized bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case http.StatusNotFound:
			return apperrors.ToDomainError(apperrors.NewNotFound("route", nil))
		case http.StatusMethodNotAllowed:
			return apperrors.ToDomainError(apperrors.NewNotFound("route", nil))
		case http.StatusRequestEntityTooLarge:
			return apperrors.NewDomainError(apperrors.CodeFileTooLarge, fe.Message, fe.Code, nil)
		case http.StatusUnauthorized:
			return apperrors.NewDomainError(apperrors.CodeUnauthorized, fe.Message, fe.Code, nil)
		case http.StatusForbidden:
			return apperrors.NewDomainError(apperrors.CodeForbidden, fe.Message, fe.Code, nil)
		case http.StatusTooManyRequests:
			return apperrors.NewDomainError(apperrors.CodeRateLimited, fe.Message, fe.Code, nil)
		}
		if fe.Code >= 400 && fe.Code < 500 {
			return apperrors.NewDomainError(apperrors.CodeValidationFailed, fe.Message, fe.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

func routeOf(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return "unmatched"
}
