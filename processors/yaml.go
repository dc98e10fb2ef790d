package processors

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLFormat re-encodes YAML files with a fixed indent. Content that does
// not parse is reported as an error so the caller can keep the raw bytes.
type YAMLFormat struct {
	Indent int
}

func NewYAMLFormat() *YAMLFormat {
	return &YAMLFormat{Indent: 2}
}

func (y *YAMLFormat) ProcessContent(filePath string, content []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
	default:
		return content, nil
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return content, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(y.Indent)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", filePath, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", filePath, err)
	}
	return buf.Bytes(), nil
}
