package linode

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// PropertyKind selects how an attribute is decoded and encoded.
type PropertyKind int

// Property kinds.
const (
	KindPlain PropertyKind = iota
	KindDatetime
	KindRelationship
	KindDerivedCollection
)

func (k PropertyKind) String() string {
	switch k {
	case KindDatetime:
		return "datetime"
	case KindRelationship:
		return "relationship"
	case KindDerivedCollection:
		return "derived_collection"
	default:
		return "plain"
	}
}

// Property describes one attribute of a resource type.
type Property struct {
	Name       string
	Kind       PropertyKind
	Identifier bool
	Mutable    bool
	Filterable bool
	Volatile   bool
	// Target names the schema of a relationship or derived collection.
	Target string
}

// Schema is the static descriptor table of a resource type. It is built
// once and shared by every instance of the type.
type Schema struct {
	// Name is the registry key, e.g. "Instance".
	Name string
	// Path is the resource endpoint template, e.g.
	// "/linode/instances/{linode_id}/disks/{id}".
	Path string
	// CollectionPath is the listing/creation endpoint template.
	CollectionPath string
	// IDAttribute names the JSON field holding the identifier. Defaults to "id".
	IDAttribute string
	// ParentKeys are the path variables of the parents, outermost first.
	ParentKeys []string
	// LegacyListKey is the array key of the legacy list response shape.
	LegacyListKey string
	// VolatileRefresh overrides the client-wide refresh threshold.
	VolatileRefresh time.Duration

	Properties []Property

	byName map[string]*Property
}

// SchemaOption tunes a schema at declaration time.
type SchemaOption func(*Schema)

// WithParents declares the parent path variables, outermost first.
func WithParents(keys ...string) SchemaOption {
	return func(s *Schema) {
		s.ParentKeys = keys
	}
}

// WithIDAttribute declares the identifier field name.
func WithIDAttribute(name string) SchemaOption {
	return func(s *Schema) {
		s.IDAttribute = name
	}
}

// WithLegacyListKey declares the array key of legacy list responses.
func WithLegacyListKey(key string) SchemaOption {
	return func(s *Schema) {
		s.LegacyListKey = key
	}
}

// WithSchemaVolatileRefresh overrides the refresh threshold of volatile
// attributes for one type.
func WithSchemaVolatileRefresh(d time.Duration) SchemaOption {
	return func(s *Schema) {
		s.VolatileRefresh = d
	}
}

// NewSchema declares a resource type. The identifier property is added when
// props does not declare it.
func NewSchema(name, path, collectionPath string, props []Property, opts ...SchemaOption) *Schema {
	schema := &Schema{
		Name:           name,
		Path:           path,
		CollectionPath: collectionPath,
		IDAttribute:    "id",
		byName:         make(map[string]*Property, len(props)+1),
	}

	for _, opt := range opts {
		opt(schema)
	}

	schema.Properties = append(schema.Properties, props...)

	if !schema.declares(schema.IDAttribute) {
		schema.Properties = append([]Property{{Name: schema.IDAttribute, Identifier: true, Filterable: true}}, schema.Properties...)
	}

	for i := range schema.Properties {
		prop := &schema.Properties[i]
		schema.byName[prop.Name] = prop
	}

	return schema
}

func (s *Schema) declares(name string) bool {
	for _, prop := range s.Properties {
		if prop.Name == name {
			return true
		}
	}

	return false
}

// Property looks up an attribute descriptor.
func (s *Schema) Property(name string) (*Property, bool) {
	prop, ok := s.byName[name]

	return prop, ok
}

// IsDerived reports whether the type needs parent identity.
func (s *Schema) IsDerived() bool {
	return len(s.ParentKeys) > 0
}

// Filterable returns the sorted names of filterable attributes.
func (s *Schema) Filterable() []string {
	var names []string

	for _, prop := range s.Properties {
		if prop.Filterable {
			names = append(names, prop.Name)
		}
	}

	sort.Strings(names)

	return names
}

// resolveParents validates parent identity. Derived types accept exactly
// one id per parent key, or a single combined key "a/b" with one segment
// per parent key. Anything else is ambiguous.
func (s *Schema) resolveParents(parents []interface{}) ([]interface{}, error) {
	if len(parents) == len(s.ParentKeys) {
		for _, parent := range parents {
			if isBlankID(parent) {
				return nil, fmt.Errorf("%w: %s requires %s", ErrAmbiguousParent, s.Name, strings.Join(s.ParentKeys, ", "))
			}
		}

		return append([]interface{}(nil), parents...), nil
	}

	if len(parents) == 1 && len(s.ParentKeys) > 1 {
		if combined, ok := parents[0].(string); ok {
			segments := strings.Split(combined, "/")
			if len(segments) == len(s.ParentKeys) {
				resolved := make([]interface{}, 0, len(segments))

				for _, segment := range segments {
					if segment == "" {
						return nil, fmt.Errorf("%w: empty segment in %q", ErrAmbiguousParent, combined)
					}

					resolved = append(resolved, segment)
				}

				return resolved, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s requires %d parent id(s) (%s), got %d",
		ErrAmbiguousParent, s.Name, len(s.ParentKeys), strings.Join(s.ParentKeys, ", "), len(parents))
}

func isBlankID(id interface{}) bool {
	if id == nil {
		return true
	}

	if str, ok := id.(string); ok {
		return str == ""
	}

	return false
}

// expand fills a path template from identity values.
func (s *Schema) expand(template string, id interface{}, parents []interface{}) string {
	pairs := make([]string, 0, 2*(len(parents)+1))

	for i, key := range s.ParentKeys {
		if i < len(parents) {
			pairs = append(pairs, "{"+key+"}", formatID(parents[i]))
		}
	}

	if id != nil {
		pairs = append(pairs, "{"+s.IDAttribute+"}", formatID(id), "{id}", formatID(id))
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

// formatID renders an identifier for use in a path. Slashes are kept since
// some identifiers (image ids) are path-like.
func formatID(id interface{}) string {
	escaped := url.PathEscape(fmt.Sprint(id))

	return strings.ReplaceAll(escaped, "%2F", "/")
}

// Registry maps schema names to descriptors so relationships and derived
// collections can name their target type.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry creates a registry holding the given schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	registry := &Registry{schemas: make(map[string]*Schema, len(schemas))}

	for _, schema := range schemas {
		err := registry.Register(schema)
		if err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adds a schema. Names are unique. A relationship may target a
// derived type only from a schema with the same parent keys, since the
// reference borrows its owner's parent ids.
func (r *Registry) Register(schema *Schema) error {
	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("%w: %s", ErrSchemaAlreadyDeclared, schema.Name)
	}

	err := r.checkRelationships(schema)
	if err != nil {
		return err
	}

	r.schemas[schema.Name] = schema

	return nil
}

// checkRelationships validates relationships between schema and the types
// already registered, in both directions.
func (r *Registry) checkRelationships(schema *Schema) error {
	lookup := func(name string) (*Schema, bool) {
		if name == schema.Name {
			return schema, true
		}

		return r.Lookup(name)
	}

	owners := append([]*Schema{schema}, r.sorted()...)
	for _, owner := range owners {
		for _, prop := range owner.Properties {
			if prop.Kind != KindRelationship {
				continue
			}

			if owner != schema && prop.Target != schema.Name {
				continue
			}

			target, ok := lookup(prop.Target)
			if !ok || !target.IsDerived() || sameKeys(owner.ParentKeys, target.ParentKeys) {
				continue
			}

			return fmt.Errorf("%w: relationship %s.%s targets %s, which needs parent ids (%s) that %s does not carry",
				ErrAmbiguousParent, owner.Name, prop.Name, target.Name,
				strings.Join(target.ParentKeys, ", "), owner.Name)
		}
	}

	return nil
}

func (r *Registry) sorted() []*Schema {
	schemas := make([]*Schema, 0, len(r.schemas))
	for _, name := range r.Names() {
		schemas = append(schemas, r.schemas[name])
	}

	return schemas
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	schema, ok := r.schemas[name]

	return schema, ok
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
