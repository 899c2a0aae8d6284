package document

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Lint loads serialized document bytes through kin-openapi and runs its
// structural validation. External refs are rejected: a compiled document
// must be self-contained.
func Lint(data []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("document does not parse as OpenAPI 3: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("document failed OpenAPI validation: %w", err)
	}
	return nil
}
