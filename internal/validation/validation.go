// Package validation implements the declarative field validation engine and
// the attachment acceptance rules used by every editing surface.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coursecraft/backend/internal/models"
)

// youtubeLinkPattern matches youtube.com watch links and youtu.be short links
var youtubeLinkPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]{6,}([&?][\w=&-]*)?$`)

// Result is the outcome of validating one entity. A nil or empty Errors map
// means the entity is valid. Keys are JSON field paths, values are
// human-readable messages.
type Result struct {
	Errors map[string]string
}

// Valid reports whether the entity passed all rules
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Engine validates entities against their registered schemas. Schemas are
// declared as struct tags plus struct-level refinements, so adding an entity
// type means registering a struct, not writing control flow.
type Engine struct {
	validate *validator.Validate
}

// NewEngine creates the validation engine with all custom rules registered
func NewEngine() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("youtubeurl", func(fl validator.FieldLevel) bool {
		return youtubeLinkPattern.MatchString(fl.Field().String())
	})

	v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.Languages, models.Language(fl.Field().String()))
	})

	// Grading scheme weights must sum to exactly 100
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(models.GradingSchemeRequest)
		sum := 0
		for _, c := range req.Categories {
			sum += c.Weight
		}
		if sum != 100 {
			sl.ReportError(req.Categories, "categories", "Categories", "weightsum", "")
		}
	}, models.GradingSchemeRequest{})

	return &Engine{validate: v}
}

// Validate runs the registered schema of the entity's type and returns a
// structured result. It is pure and never panics on rule failures.
func (e *Engine) Validate(entity any) Result {
	err := e.validate.Struct(entity)
	if err == nil {
		return Result{}
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Non-rule failure (invalid schema registration); report it on the
		// root rather than propagating a panic into an editing surface
		return Result{Errors: map[string]string{"": err.Error()}}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = message(fe)
	}
	return Result{Errors: out}
}

// fieldPath strips the root struct name from the error namespace, leaving
// the JSON path of the failing field (e.g. "categories[0].weight")
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// message renders one field error as a human-readable sentence
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "required_without":
		return "this field is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "youtubeurl":
		return "must be a valid YouTube link"
	case "language":
		return "is not a supported language"
	case "weightsum":
		return "category weights must sum to 100"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateDueDate checks that a due date lies within the owning quarter's
// bounds. Quarter bounds are inclusive on both ends. A nil due date or a
// quarter with zero bounds validates trivially.
func ValidateDueDate(due *models.DueDate, quarter *models.Quarter) Result {
	if due == nil || quarter == nil {
		return Result{}
	}
	if quarter.StartDate.IsZero() && quarter.EndDate.IsZero() {
		return Result{}
	}
	if due.Instant.Before(quarter.StartDate) || due.Instant.After(quarter.EndDate) {
		return Result{Errors: map[string]string{
			"dueDate": fmt.Sprintf("due date must fall between %s and %s",
				quarter.StartDate.Format("2006-01-02"), quarter.EndDate.Format("2006-01-02")),
		}}
	}
	return Result{}
}
