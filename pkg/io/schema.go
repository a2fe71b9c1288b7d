package io

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

//go:embed page.schema.json
var pageSchema string

const schemaURL = "https://brickgrid.dev/schema/page.json"

// Schema returns the JSON Schema page documents are validated against.
func Schema() string { return pageSchema }

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(pageSchema)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// validateSchema checks a decoded JSON value against the page schema.
func validateSchema(doc any) error {
	s, err := compiled()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compile page schema")
	}
	err = s.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !stderrors.As(err, &ve) {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "page schema")
	}
	return errors.Wrap(errors.ErrCodeInvalidDocument,
		&page.ValidationError{Problems: schemaProblems(ve)}, "page does not match schema")
}

// schemaProblems flattens a validation error tree into its leaf messages,
// one per instance location.
func schemaProblems(ve *jsonschema.ValidationError) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msg := fmt.Sprintf("%s: %s", loc, e.Message)
			if !seen[msg] {
				seen[msg] = true
				out = append(out, msg)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(out)
	return out
}
