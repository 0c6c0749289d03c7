// Package schema loads and publishes the schema knowledge snapshot: the
// typed table/column/relationship model the planner and validator work from.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// Descriptor is the external schema document consumed at load time. It is
// produced either by hand, by an export tool, or by live introspection
// (see Introspect*); YAML and JSON documents both parse.
type Descriptor struct {
	Database string         `yaml:"database" json:"database"`
	Tables   []models.Table `yaml:"tables" json:"tables"`

	// Relationships declares edges beyond the column-level foreign keys,
	// e.g. curated links for schemas whose engine has no FK constraints.
	Relationships []models.Relationship `yaml:"relationships,omitempty" json:"relationships,omitempty"`
}

// ParseDescriptor reads a YAML or JSON descriptor document.
func ParseDescriptor(r io.Reader) (*Descriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &apperrors.SchemaLoadError{
			Reason: apperrors.SchemaReasonMalformed,
			Detail: "read descriptor",
			Err:    err,
		}
	}
	var desc Descriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, &apperrors.SchemaLoadError{
			Reason: apperrors.SchemaReasonMalformed,
			Detail: err.Error(),
			Err:    err,
		}
	}
	if len(desc.Tables) == 0 {
		return nil, &apperrors.SchemaLoadError{
			Reason: apperrors.SchemaReasonMalformed,
			Detail: "descriptor declares no tables",
		}
	}
	return &desc, nil
}

// LoadFile parses and validates a descriptor file into a Model.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperrors.SchemaLoadError{
			Reason: apperrors.SchemaReasonMalformed,
			Detail: fmt.Sprintf("open %s", path),
			Err:    err,
		}
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates a descriptor document into a Model.
func Load(r io.Reader) (*Model, error) {
	desc, err := ParseDescriptor(r)
	if err != nil {
		return nil, err
	}
	return NewModel(desc)
}
