package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FieldConfig describes which post fields the feed request selects.
type FieldConfig struct {
	Fields []Field `json:"fields"`
}

// Field is one entry of the Graph API field selector. Limit and Summary map
// to the .limit(n) and .summary(...) modifiers; Fields is the nested
// {a,b} sub-selection.
type Field struct {
	Name    string   `json:"name"`
	Limit   int      `json:"limit,omitempty"`
	Summary []string `json:"summary,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
}

// String renders the selector, e.g.
// "id,comments.limit(1000){from,message},reactions.summary(total_count)".
func (fc FieldConfig) String() string {
	return joinFields(fc.Fields)
}

func joinFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ",")
}

func (f Field) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	if f.Limit > 0 {
		b.WriteString(".limit(")
		b.WriteString(strconv.Itoa(f.Limit))
		b.WriteString(")")
	}
	if len(f.Summary) > 0 {
		b.WriteString(".summary(")
		b.WriteString(strings.Join(f.Summary, ","))
		b.WriteString(")")
	}
	if len(f.Fields) > 0 {
		b.WriteString("{")
		b.WriteString(joinFields(f.Fields))
		b.WriteString("}")
	}
	return b.String()
}

// Validate rejects unnamed fields at any depth.
func (fc FieldConfig) Validate() error {
	if len(fc.Fields) == 0 {
		return fmt.Errorf("field config selects no fields")
	}
	return validateFields(fc.Fields, "")
}

func validateFields(fields []Field, parent string) error {
	for i, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			if parent == "" {
				return fmt.Errorf("field %d has no name", i)
			}
			return fmt.Errorf("field %d under %q has no name", i, parent)
		}
		if f.Limit < 0 {
			return fmt.Errorf("field %q has negative limit %d", f.Name, f.Limit)
		}
		if err := validateFields(f.Fields, f.Name); err != nil {
			return err
		}
	}
	return nil
}

// LoadFields loads the field configuration from the specified JSON file.
func LoadFields(path string) (FieldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldConfig{}, fmt.Errorf("failed to read field config file: %w", err)
	}

	return LoadFieldsFromBytes(data)
}

// LoadFieldsFromBytes parses field configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadFieldsFromBytes(data []byte) (FieldConfig, error) {
	var config FieldConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return FieldConfig{}, fmt.Errorf("failed to parse field config JSON: %w", err)
	}
	if err := config.Validate(); err != nil {
		return FieldConfig{}, err
	}

	return config, nil
}

// DefaultFields returns the fallback configuration if no JSON file is loaded.
// It selects everything the transformer needs, with up to 1000 comments per post.
func DefaultFields() FieldConfig {
	return FieldConfig{
		Fields: []Field{
			{Name: "id"},
			{Name: "message"},
			{Name: "created_time"},
			{Name: "from"},
			{
				Name:  "comments",
				Limit: 1000,
				Fields: []Field{
					{Name: "from"},
					{Name: "message"},
				},
			},
			{Name: "reactions", Summary: []string{"total_count"}},
		},
	}
}
