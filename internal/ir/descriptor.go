package ir

import (
	"bytes"
	_ "embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed descriptor.cue
var descriptorCUE string

// Descriptor is the on-tree form of a recorded process invocation.
type Descriptor struct {
	ID      string   `yaml:"id,omitempty" json:"id,omitempty"`
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Inputs  []string `yaml:"inputs" json:"inputs"`
	Outputs []string `yaml:"outputs" json:"outputs"`
}

// DescriptorError reports a run descriptor that cannot be decoded or does
// not satisfy the descriptor schema.
type DescriptorError struct {
	Field   string
	Message string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid run descriptor: %s: %s", e.Field, e.Message)
}

// RunPath returns the tree path of the descriptor with the given id.
func RunPath(id string) string {
	return RunsDir + "/" + id + ".yaml"
}

// IsRunPath reports whether p names a run descriptor.
func IsRunPath(p string) bool {
	return strings.HasPrefix(p, RunsDir+"/") && strings.HasSuffix(p, ".yaml")
}

// IsMetadata reports whether p lies under the metadata directory.
func IsMetadata(p string) bool {
	return p == MetadataDir || strings.HasPrefix(p, MetadataDir+"/")
}

// DecodeDescriptor parses and validates a run descriptor.
// Unknown fields are rejected so that typos do not silently drop inputs.
func DecodeDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return Descriptor{}, &DescriptorError{Field: "yaml", Message: err.Error()}
	}
	d = d.normalized()

	if err := ValidateDescriptor(d); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// EncodeDescriptor validates d and renders it as YAML.
func EncodeDescriptor(d Descriptor) ([]byte, error) {
	d = d.normalized()
	if err := ValidateDescriptor(d); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return data, nil
}

// Invocation converts the descriptor recorded by commitID into a
// ProcessInvocation. raw is the descriptor body, used to derive an id when
// none was recorded.
func (d Descriptor) Invocation(commitID string, raw []byte) *ProcessInvocation {
	id := d.ID
	if id == "" {
		id = ProcessID(commitID, raw)
	}
	return &ProcessInvocation{
		ID:       id,
		CommitID: commitID,
		Command:  d.Command,
		Inputs:   append([]string{}, d.Inputs...),
		Outputs:  append([]string{}, d.Outputs...),
	}
}

func (d Descriptor) normalized() Descriptor {
	if d.Inputs == nil {
		d.Inputs = []string{}
	}
	if d.Outputs == nil {
		d.Outputs = []string{}
	}
	return d
}

var (
	schemaMu  sync.Mutex
	cueCtx    *cue.Context
	runSchema cue.Value
)

// ValidateDescriptor checks d against the embedded CUE schema and requires
// every path to already be in clean form.
func ValidateDescriptor(d Descriptor) error {
	if err := validateSchema(d.normalized()); err != nil {
		return err
	}

	for _, list := range []struct {
		field string
		paths []string
	}{{"inputs", d.Inputs}, {"outputs", d.Outputs}} {
		for i, p := range list.paths {
			if path.Clean(p) != p {
				return &DescriptorError{
					Field:   fmt.Sprintf("%s[%d]", list.field, i),
					Message: fmt.Sprintf("path %q is not in clean form", p),
				}
			}
		}
	}
	return nil
}

// validateSchema unifies d with #Run. cue.Context is not safe for concurrent
// use, so validation is serialized.
func validateSchema(d Descriptor) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if cueCtx == nil {
		ctx := cuecontext.New()
		schema := ctx.CompileString(descriptorCUE, cue.Filename("descriptor.cue"))
		if err := schema.Err(); err != nil {
			return fmt.Errorf("compile descriptor schema: %w", err)
		}
		cueCtx = ctx
		runSchema = schema.LookupPath(cue.ParsePath("#Run"))
	}

	value := runSchema.Unify(cueCtx.Encode(d))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError keeps the first CUE error and its field path.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DescriptorError{Field: "schema", Message: err.Error()}
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "schema"
	}
	format, args := first.Msg()
	return &DescriptorError{Field: field, Message: fmt.Sprintf(format, args...)}
}
