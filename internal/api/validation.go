package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ArticleEnhancer/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type createArticleRequest struct {
	Title       string     `json:"title" validate:"notblank,max=500"`
	Content     string     `json:"content" validate:"notblank"`
	OriginalURL string     `json:"original_url" validate:"omitempty,url"`
	ScrapedAt   *time.Time `json:"scraped_at"`
}

type updateArticleRequest struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=500"`
	Content     *string `json:"content" validate:"omitnil,notblank"`
	OriginalURL *string `json:"original_url" validate:"omitnil,omitempty,url"`
}

type publishRequest struct {
	AIContent string   `json:"ai_content" validate:"notblank"`
	Citations []string `json:"citations" validate:"required,dive,url"`
}

// check runs struct validation and converts failures into a domain error with
// one message per json field.
func check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate payload: %w", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return &domain.ValidationError{Message: "Validation failed", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
