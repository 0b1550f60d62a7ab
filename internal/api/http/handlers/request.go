package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/auth"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// bind decodes the JSON body into out and runs its validate tags.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validateStruct(out)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return apperrors.NewValidationError("invalid request", details)
}

func principal(c *fiber.Ctx) (*domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// dateParser turns YYYY-MM-DD request values into calendar dates.
type dateParser struct {
	cal     temporal.Calendar
	details map[string]any
}

func newDateParser(cal temporal.Calendar) *dateParser {
	return &dateParser{cal: cal, details: map[string]any{}}
}

func (p *dateParser) required(field, value string) time.Time {
	t, err := p.cal.ParseDate(strings.TrimSpace(value))
	if err != nil {
		p.details[field] = "YYYY-MM-DD"
		return time.Time{}
	}
	return t
}

// optional returns nil for an absent or empty value.
func (p *dateParser) optional(field string, value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	t := p.required(field, *value)
	return &t
}

func (p *dateParser) err() error {
	if len(p.details) == 0 {
		return nil
	}
	return apperrors.NewValidationError("invalid date", p.details)
}

// queryParam returns the first non-empty value among alternate spellings of a key.
func queryParam(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid query parameter", map[string]any{key: "integer"})
	}
	return n, nil
}
