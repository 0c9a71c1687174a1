package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct runs the `validate` tags of a request struct.
func ValidateStruct(obj interface{}) error {
	return validate.Struct(obj)
}

// VarcharPattern matches sized VARCHAR declarations such as VARCHAR(64).
var VarcharPattern = regexp.MustCompile(`(?i)^VARCHAR\((\d+)\)$`)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether a name is safe to interpolate into DDL
// as a table or column identifier. Data loading builds CREATE TABLE
// statements from dataset metadata, so everything else is rejected.
func IsValidIdentifier(name string) bool {
	return len(name) > 0 && len(name) <= 64 && identifierPattern.MatchString(name)
}

// QuoteIdentifier wraps an already-validated identifier in backticks.
func QuoteIdentifier(name string) string {
	return "`" + name + "`"
}
