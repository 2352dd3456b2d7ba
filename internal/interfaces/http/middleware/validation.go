package middleware

import (
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

var tenantCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)

// Custom binding tags understood by request DTOs
var customValidators = map[string]validator.Func{
	"tenant_code": func(fl validator.FieldLevel) bool {
		return tenantCodePattern.MatchString(fl.Field().String())
	},
	"plan": func(fl validator.FieldLevel) bool {
		return identity.TenantPlan(fl.Field().String()).IsValid()
	},
	"module": func(fl validator.FieldLevel) bool {
		return identity.ModuleKey(fl.Field().String()).IsValid()
	},
	"routing_strategy": func(fl validator.FieldLevel) bool {
		return crm.RoutingStrategy(fl.Field().String()).IsValid()
	},
}

// SetupValidator reports JSON field names in errors and registers the
// tenant_code, plan, module and routing_strategy tags
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	for tag, fn := range customValidators {
		// Only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, fn)
	}
}

// FormatValidationErrors lists each failed field with a readable message
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min", "max":
		bound := "at least "
		if e.Tag() == "max" {
			bound = "at most "
		}
		if e.Type().Kind() == reflect.String {
			return "Must be " + bound + e.Param() + " characters"
		}
		if e.Type().Kind() == reflect.Slice {
			return "Must have " + bound + e.Param() + " items"
		}
		return "Must be " + bound + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "datetime":
		return "Must be a date in format " + e.Param()
	case "url":
		return "Invalid URL format"
	case "tenant_code":
		return "Must be 2-50 letters, digits, underscores or hyphens"
	case "plan":
		return "Must be one of: free starter professional enterprise"
	case "module":
		return "Unknown module"
	case "routing_strategy":
		return "Must be one of: round_robin least_loaded territory"
	default:
		return "Invalid value"
	}
}
