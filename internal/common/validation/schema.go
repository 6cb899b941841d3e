// Package validation checks worker job variables against the input and
// output schemas each worker publishes to the activity registry.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// JSONSchema is the subset of JSON Schema the activity registry uses.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages flattens the result into "field: message" strings for
// error details.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// ValidateInput checks input against schema and collects every violation
// instead of stopping at the first one.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, name := range schema.Required {
		if _, ok := input[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for name, value := range input {
		prop, known := schema.Properties[name]
		if !known {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   name,
					Message: "field not allowed by schema",
					Code:    "UNKNOWN_FIELD",
				})
			}
			continue
		}
		errs = append(errs, checkProperty(name, value, prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func checkProperty(field string, value interface{}, prop Property) []ValidationError {
	if err := checkType(value, prop.Type); err != nil {
		return []ValidationError{{Field: field, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	var errs []ValidationError
	switch v := value.(type) {
	case string:
		errs = append(errs, checkString(field, v, prop)...)
	case float64:
		errs = append(errs, checkNumber(field, v, prop)...)
	case []interface{}:
		if prop.Items != nil {
			for i, item := range v {
				errs = append(errs, checkProperty(fmt.Sprintf("%s[%d]", field, i), item, *prop.Items)...)
			}
		}
	case map[string]interface{}:
		if prop.Properties != nil {
			nested := ValidateInput(v, JSONSchema{
				Type:                 "object",
				Properties:           prop.Properties,
				Required:             prop.Required,
				AdditionalProperties: true,
			})
			for _, ne := range nested.Errors {
				errs = append(errs, ValidationError{
					Field:   field + "." + ne.Field,
					Message: ne.Message,
					Code:    ne.Code,
				})
			}
		}
	}
	return errs
}

func checkString(field, value string, prop Property) []ValidationError {
	var errs []ValidationError
	if prop.MinLength != nil && len(value) < *prop.MinLength {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters", *prop.MinLength),
			Code:    "TOO_SHORT",
		})
	}
	if prop.MaxLength != nil && len(value) > *prop.MaxLength {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", *prop.MaxLength),
			Code:    "TOO_LONG",
		})
	}
	if prop.Pattern != nil {
		if matched, err := regexp.MatchString(*prop.Pattern, value); err != nil || !matched {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must match pattern %s", *prop.Pattern),
				Code:    "PATTERN_MISMATCH",
			})
		}
	}
	if len(prop.Enum) > 0 && !containsString(prop.Enum, value) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of %s", strings.Join(prop.Enum, ", ")),
			Code:    "INVALID_ENUM_VALUE",
		})
	}
	return errs
}

func checkNumber(field string, value float64, prop Property) []ValidationError {
	var errs []ValidationError
	if prop.Minimum != nil && value < *prop.Minimum {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be >= %g", *prop.Minimum),
			Code:    "BELOW_MINIMUM",
		})
	}
	if prop.Maximum != nil && value > *prop.Maximum {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be <= %g", *prop.Maximum),
			Code:    "ABOVE_MAXIMUM",
		})
	}
	return errs
}

// checkType verifies the decoded variable matches the schema type. Job
// variables arrive through encoding/json, so every number is a float64 and
// "integer" additionally requires a whole value.
func checkType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		if !isNumeric(value) {
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		f, ok := asFloat(value)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %v", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "null":
		if value != nil {
			return fmt.Errorf("expected null, got %T", value)
		}
	}
	return nil
}

func isNumeric(value interface{}) bool {
	_, ok := asFloat(value)
	return ok
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

var activityIDPattern = regexp.MustCompile(`^[a-z]+(-[a-z0-9]+)*$`)

// ValidateActivityNaming enforces the kebab-case convention activity IDs
// share with their Zeebe task types.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID must be kebab-case matching its task type (e.g., discover-candidates)")
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email looks deliverable enough to hand to SES.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)

// ValidatePhone reports whether phone can carry an SMS alert.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
