// Package content defines the structured outputs the service asks the model
// for. Every constraint on a field is a validator rule, so the same struct
// tags that shape the JSON Schema sent to the model are enforced on what
// comes back.
package content

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("content failed validation")

// Violation is a single failed field predicate.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError lists every violation found in one generated instance.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("%s failed validation: %s", e.Schema, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "social_structure", socialStructure)
	mustRegister(v, "frontmatter", hasFrontmatter)
	mustRegister(v, "heading_outline", hasHeadingOutline)

	return v
}

func mustRegister(v *validator.Validate, tag string, fn func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func check(schema string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", schema, err)
	}

	result := &ValidationError{Schema: schema}
	for _, fe := range fieldErrs {
		result.Violations = append(result.Violations, Violation{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: describe(fe),
		})
	}
	return result
}

// fieldPath drops the struct name prefix: "SocialPost.hashtags[1]" -> "hashtags[1]".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func describe(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "is required and must not be empty"
	case "max":
		if isList {
			return fmt.Sprintf("must have at most %s items (got %d)", fe.Param(), reflect.ValueOf(fe.Value()).Len())
		}
		return fmt.Sprintf("must be at most %s characters (got %d)", fe.Param(), runeLen(fe.Value()))
	case "min":
		if isList {
			return fmt.Sprintf("must have at least %s items (got %d)", fe.Param(), reflect.ValueOf(fe.Value()).Len())
		}
		return fmt.Sprintf("must be at least %s characters (got %d)", fe.Param(), runeLen(fe.Value()))
	case "len":
		return fmt.Sprintf("must have exactly %s items (got %d)", fe.Param(), reflect.ValueOf(fe.Value()).Len())
	case "social_structure":
		return fmt.Sprintf("must be a hook line of at most %d characters, at least one paragraph and a conclusion of at most %d characters, separated by blank lines", maxHookRunes, maxConclusionRunes)
	case "frontmatter":
		return fmt.Sprintf("must start with a frontmatter block between --- lines containing %s", strings.Join(frontmatterKeys, ", "))
	case "heading_outline":
		return fmt.Sprintf("must contain exactly one H1 heading and at least %d H2 sections", minH2Sections)
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

func runeLen(v any) int {
	s, _ := v.(string)
	return len([]rune(s))
}
