package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/page"
)

// ReadPage decodes and validates a JSON page document from r. The page is
// normalized: sections are sorted by order and missing child parent ids are
// filled in. ReadPage does not close r.
func ReadPage(r io.Reader) (*page.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return DecodePage(data)
}

// DecodePage is ReadPage over a byte slice.
func DecodePage(data []byte) (*page.Page, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode page")
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var p page.Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode page")
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadPageYAML decodes a YAML page document from r. The YAML is converted
// to JSON and validated like ReadPage.
func ReadPageYAML(r io.Reader) (*page.Page, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode yaml page")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "convert yaml page")
	}
	return DecodePage(data)
}

// ImportPage reads the page file at path, as YAML for ".yaml" and ".yml"
// and as JSON otherwise.
func ImportPage(path string) (*page.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var p *page.Page
	if isYAML(path) {
		p, err = ReadPageYAML(f)
	} else {
		p, err = ReadPage(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
