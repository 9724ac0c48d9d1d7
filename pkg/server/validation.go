package server

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	datasetNamePattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$`)
	datasetVersionPattern = regexp.MustCompile(`^[a-z][a-z0-9_\-]*[a-z0-9]$`)
)

func NewValidator() (*validator.Validate, error) {
	validate := validator.New()

	// Report fields under the names clients send them with.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}

		return field.Name
	})

	// Lower case letters, digits and underscores, starting with a letter.
	if err := validate.RegisterValidation("datasetName", func(fl validator.FieldLevel) bool {
		return datasetNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("validation registration for 'datasetName' failed: %w", err)
	}

	// Same as datasetName, dashes allowed.
	if err := validate.RegisterValidation("datasetVersion", func(fl validator.FieldLevel) bool {
		return datasetVersionPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("validation registration for 'datasetVersion' failed: %w", err)
	}

	return validate, nil
}
