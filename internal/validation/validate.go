// Package validation turns externally supplied JSON documents into model.AppData.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateAppData validates an imported document and migrates it to the current schema.
func ValidateAppData(raw []byte) (model.AppData, error) {
	return Validate(raw, SourceImport)
}

// Validate checks raw against the AppData schema. Every violation is reported in a
// single *ValidationError tagged with source.
func Validate(raw []byte, source Source) (model.AppData, error) {
	var doc rawAppData
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.AppData{}, &ValidationError{Source: source, Issues: []Issue{decodeIssue(err)}}
	}

	issues := schemaIssues(doc)
	issues = append(issues, periodIssues(doc.Grants)...)
	if len(issues) > 0 {
		return model.AppData{}, &ValidationError{Source: source, Issues: issues}
	}

	var data model.AppData
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return model.AppData{}, &ValidationError{Source: source, Issues: []Issue{decodeIssue(err)}}
	}
	if doc.SchemaVersion == nil {
		data.SchemaVersion = 1
	}

	migrated, err := MigrateAppData(data)
	if err != nil {
		return model.AppData{}, &ValidationError{
			Source: source,
			Issues: []Issue{{Path: "schemaVersion", Message: err.Error()}},
		}
	}
	return migrated, nil
}

func decodeIssue(err error) Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if path == "" {
			path = "$"
		}
		return Issue{Path: path, Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
	}
	return Issue{Path: "$", Message: err.Error()}
}

func schemaIssues(doc rawAppData) []Issue {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Path: "$", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{Path: fieldPath(fe.Namespace()), Message: describe(fe)})
	}
	return issues
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "isodate":
		return fmt.Sprintf("must be a date in format %s", model.DateFormat)
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}

func periodIssues(grants []rawGrant) []Issue {
	var issues []Issue
	for i, g := range grants {
		if g.PassedPeriods == nil || g.VestPeriods == nil {
			continue
		}
		if *g.PassedPeriods > *g.VestPeriods {
			issues = append(issues, Issue{
				Path:    fmt.Sprintf("grants[%d].passedPeriods", i),
				Message: fmt.Sprintf("must not exceed vestPeriods (%d)", *g.VestPeriods),
			})
		}
	}
	return issues
}
