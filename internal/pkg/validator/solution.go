package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// Validator checks request DTOs against their validate tags and maps
// failures onto entity sentinel errors.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) ValidateSolutionRequest(req *entity.SolutionRequest) error {
	if req == nil {
		return fmt.Errorf("%w: body", entity.ErrMissingField)
	}
	return v.structErr(v.validate.Struct(req))
}

// ValidatePlanID checks that id is a UUID.
func (v *Validator) ValidatePlanID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: plan id %q", entity.ErrInvalidFormat, id)
	}
	return nil
}

// ParseExportFormat resolves an export format; empty means markdown.
func (v *Validator) ParseExportFormat(raw string) (entity.ResultFormat, error) {
	switch f := entity.ResultFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return entity.FormatMarkdown, nil
	case entity.FormatMarkdown, entity.FormatPDF, entity.FormatDOCX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s (allowed: markdown, pdf, docx)", entity.ErrUnsupportedFormat, raw)
	}
}

func (v *Validator) structErr(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	missing := make([]string, 0, len(verrs))
	invalid := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, describe(fe))
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", entity.ErrMissingField, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: %s", entity.ErrInvalidParameter, strings.Join(invalid, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s length must be %s %s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
