package gridio

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchema is returned when a request object does not match the request schema.
var ErrSchema = errors.New("request does not match schema")

//go:embed request.schema.json
var requestSchemaJSON []byte

var (
	requestSchemaOnce sync.Once
	requestSchema     *gojsonschema.Schema
	requestSchemaErr  error
)

// RequestSchema returns the embedded JSON schema for request objects.
func RequestSchema() []byte {
	return requestSchemaJSON
}

func compiledSchema() (*gojsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		requestSchema, requestSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(requestSchemaJSON))
	})

	return requestSchema, requestSchemaErr
}

// CheckSchema reports whether the embedded request schema compiles. Requests
// cannot be validated until it does.
func CheckSchema(_ context.Context) error {
	_, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load request schema: %w", err)
	}

	return nil
}

// ValidateRequest checks a JSON request object against the embedded schema.
func ValidateRequest(document []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load request schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(details, "; "))
}
