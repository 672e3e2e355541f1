package pubcontent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "frontmatter.schema.json"

func compileSchema() (*jsonschema.Schema, error) {
	data, err := EmbeddedAssets.ReadFile(schemaAsset)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// schemaIssues validates the raw metadata block of src against the schema.
func (l *Linter) schemaIssues(src []byte) []Issue {
	raw := map[string]interface{}{}
	if _, err := frontmatter.MustParse(bytes.NewReader(src), &raw); err != nil {
		// already reported by the structural checks
		return nil
	}
	doc, err := jsonValue(raw)
	if err != nil {
		return []Issue{{Field: "front matter", Message: err.Error(), Severity: SeverityError}}
	}
	err = l.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Field: "front matter", Message: err.Error(), Severity: SeverityError}}
	}
	var issues []Issue
	for _, leaf := range leafCauses(ve) {
		field := strings.ReplaceAll(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/", ".")
		if field == "" {
			field = "front matter"
		}
		issues = append(issues, Issue{Field: field, Message: "schema: " + leaf.Message, Severity: SeverityError})
	}
	return issues
}

func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		leaves = append(leaves, leafCauses(c)...)
	}
	return leaves
}

// jsonValue converts a YAML-decoded value into the plain JSON shapes the
// schema validator expects.
func jsonValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("convert front matter: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("convert front matter: %w", err)
	}
	return out, nil
}

func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
