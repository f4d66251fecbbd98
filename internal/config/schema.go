package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "todocheck.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// SchemaJSON returns the JSON Schema config files are checked against.
func SchemaJSON() string {
	return schemaJSON
}

// validateDocument checks a decoded config file against the schema. Each
// failure is returned as a ConfigError whose field is the dotted key path.
func validateDocument(doc map[string]any) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so TOML dates and YAML maps become plain JSON values.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		var errs []error
		collectSchemaErrors(ve, &errs)
		if len(errs) == 0 {
			return configError("", errors.New(ve.Message))
		}
		return errors.Join(errs...)
	}
	return nil
}

// collectSchemaErrors collects the leaf validation errors.
func collectSchemaErrors(err *jsonschema.ValidationError, out *[]error) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		field := jsonPointerToPath(err.InstanceLocation)
		if field == "" {
			field = "config"
		}
		*out = append(*out, configError(field, errors.New(err.Message)))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}

// jsonPointerToPath converts a JSON Pointer (RFC 6901) to a dotted path,
// e.g. "/jira/timeout_seconds" becomes "jira.timeout_seconds" and
// "/exclude/0" becomes "exclude[0]".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
