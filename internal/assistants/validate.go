package assistants

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Metadata is a set of up to 16 key-value pairs attached to an object. Keys are
// at most 64 characters, values at most 512. The service enforces these limits;
// Validate lets callers check them before sending.
type Metadata map[string]string

// metadataRules is the validator tag applied to every Metadata field.
const metadataRules = "omitempty,max=16,dive,keys,max=64,endkeys,max=512"

var functionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// validate is shared by all Validate methods; validator caches struct metadata
// per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report wire names in validation errors
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("function_name", func(fl validator.FieldLevel) bool {
		return functionNamePattern.MatchString(fl.Field().String())
	})

	return v
}

// Validate checks the metadata limits.
func (m Metadata) Validate() error {
	return validate.Var(m, metadataRules)
}
