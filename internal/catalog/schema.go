package catalog

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/scholarpath/internal/scholarship"
)

var (
	//go:embed schemas/catalog.json
	catalogSchema []byte
	//go:embed schemas/profile.json
	profileSchema []byte
)

// validateDocument checks raw JSON against a schema. Schema violations come
// back as a *scholarship.ValidationError listing every violation.
func validateDocument(record string, schema, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validating %s: %w", record, err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		details[i] = desc.String()
	}
	return &scholarship.ValidationError{
		Record:  record,
		Reason:  "schema violation",
		Details: details,
	}
}

// ValidateCatalogJSON checks a catalog document without decoding it.
func ValidateCatalogJSON(data []byte) error {
	return validateDocument(scholarship.RecordCatalog, catalogSchema, data)
}

// ValidateProfileJSON checks a profile document without decoding it.
func ValidateProfileJSON(data []byte) error {
	return validateDocument(scholarship.RecordProfile, profileSchema, data)
}
