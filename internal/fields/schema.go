package fields

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"formbuilder/internal/domain"
)

//go:embed schema.cue
var schemaSource []byte

// SchemaError reports attribute values that violate a kind's schema.
// Fields maps the attribute name to a human readable message.
type SchemaError struct {
	Kind   domain.FieldKind
	Fields map[string]string
}

func (e *SchemaError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return fmt.Sprintf("invalid %s attributes: %s", e.Kind, strings.Join(parts, "; "))
}

// schemas holds the compiled attribute schemas. A cue.Context is not safe
// for concurrent use, so every evaluation goes through mu.
type schemas struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

var (
	schemaOnce sync.Once
	schemaSet  *schemas
	schemaErr  error
)

func loadSchemas() (*schemas, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
		if err := root.Err(); err != nil {
			schemaErr = fmt.Errorf("compile attribute schema: %w", err)
			return
		}
		schemaSet = &schemas{ctx: ctx, root: root}
	})
	return schemaSet, schemaErr
}

// ValidateAttributes checks attrs against the schema of its kind.
// It returns a *SchemaError when any attribute is out of bounds.
func ValidateAttributes(attrs domain.Attributes) error {
	s, err := loadSchemas()
	if err != nil {
		return err
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal %s attributes: %w", attrs.Kind(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schema := s.root.LookupPath(cue.ParsePath(string(attrs.Kind())))
	if !schema.Exists() {
		return fmt.Errorf("%w: no schema for %s", domain.ErrUnknownKind, attrs.Kind())
	}
	value := s.ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return fmt.Errorf("compile %s attributes: %w", attrs.Kind(), err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return toSchemaError(attrs.Kind(), err)
	}
	return nil
}

func toSchemaError(kind domain.FieldKind, err error) *SchemaError {
	se := &SchemaError{Kind: kind, Fields: map[string]string{}}
	for _, e := range cueerrors.Errors(err) {
		name := "_"
		path := e.Path()
		if len(path) > 1 && path[0] == string(kind) {
			path = path[1:]
		}
		if len(path) > 0 {
			name = path[0]
		}
		if _, seen := se.Fields[name]; seen {
			continue
		}
		format, args := e.Msg()
		se.Fields[name] = fmt.Sprintf(format, args...)
	}
	return se
}
