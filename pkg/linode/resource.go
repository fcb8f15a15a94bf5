package linode

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Resource is one API entity with lazy population. It starts either
// unpopulated (identity only) or populated from a JSON payload. Reading any
// non-identifier attribute of an unpopulated resource fetches it once.
//
// Local edits live in a pending set until Save. Invalidate drops the read
// cache but keeps pending edits, so a Save after Invalidate still submits
// them.
//
// A Resource is not safe for concurrent use.
type Resource struct {
	client  *Client
	schema  *Schema
	id      interface{}
	parents []interface{}

	populated   bool
	lastUpdated time.Time
	raw         map[string]json.RawMessage
	values      map[string]interface{}
	pending     map[string]interface{}
	memo        map[string]interface{}
}

func (c *Client) newResource(schema *Schema, id interface{}, parents []interface{}) *Resource {
	return &Resource{
		client:  c,
		schema:  schema,
		id:      id,
		parents: parents,
		pending: make(map[string]interface{}),
		memo:    make(map[string]interface{}),
	}
}

// fromJSON builds a populated resource from a payload returned by a list,
// create, or embedding call.
func (c *Client) fromJSON(schema *Schema, parents []interface{}, object map[string]json.RawMessage) (*Resource, error) {
	resource := c.newResource(schema, nil, parents)

	err := resource.populate(object)
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// Ref returns an unpopulated resource. No request is made.
func (c *Client) Ref(schema *Schema, id interface{}, parents ...interface{}) (*Resource, error) {
	if isBlankID(id) {
		return nil, fmt.Errorf("%w: %s", ErrMissingIdentity, schema.Name)
	}

	resolved, err := schema.resolveParents(parents)
	if err != nil {
		return nil, err
	}

	return c.newResource(schema, id, resolved), nil
}

// Load fetches a resource immediately and fails if the response does not
// carry the identifier.
func (c *Client) Load(ctx context.Context, schema *Schema, id interface{}, parents ...interface{}) (*Resource, error) {
	resource, err := c.Ref(schema, id, parents...)
	if err != nil {
		return nil, err
	}

	err = resource.fetch(ctx)
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// Create posts body to the collection endpoint and returns the populated
// result.
func (c *Client) Create(ctx context.Context, schema *Schema, body interface{}, parents ...interface{}) (*Resource, error) {
	resolved, err := schema.resolveParents(parents)
	if err != nil {
		return nil, err
	}

	path := schema.expand(schema.CollectionPath, nil, resolved)

	object, err := c.Post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", schema.Name, err)
	}

	if object == nil {
		return nil, &UnexpectedResponseError{Message: fmt.Sprintf("create %s returned no body", schema.Name)}
	}

	return c.fromJSON(schema, resolved, object)
}

// Schema returns the type descriptor.
func (r *Resource) Schema() *Schema {
	return r.schema
}

// ID returns the identifier. It never triggers a fetch.
func (r *Resource) ID() interface{} {
	return r.id
}

// Parents returns the parent ids, outermost first.
func (r *Resource) Parents() []interface{} {
	return append([]interface{}(nil), r.parents...)
}

// Path returns the resource endpoint with identity interpolated.
func (r *Resource) Path() string {
	return r.schema.expand(r.schema.Path, r.id, r.parents)
}

// Populated reports whether attribute values are cached.
func (r *Resource) Populated() bool {
	return r.populated
}

// Raw returns the last fetched payload, or nil.
func (r *Resource) Raw() map[string]json.RawMessage {
	return r.raw
}

// Dirty returns the names of attributes changed since the last save.
func (r *Resource) Dirty() []string {
	names := make([]string, 0, len(r.pending))
	for name := range r.pending {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// String implements fmt.Stringer.
func (r *Resource) String() string {
	identity := make([]string, 0, len(r.parents)+1)
	for _, parent := range r.parents {
		identity = append(identity, fmt.Sprint(parent))
	}

	identity = append(identity, fmt.Sprint(r.id))

	return fmt.Sprintf("%s: %s", r.schema.Name, strings.Join(identity, "/"))
}

func (r *Resource) logFields() map[string]interface{} {
	return map[string]interface{}{
		"type": r.schema.Name,
		"id":   r.id,
		"path": r.Path(),
	}
}

// fetch loads the resource from its endpoint.
func (r *Resource) fetch(ctx context.Context) error {
	r.client.logger.Debug("Populating resource", r.logFields())

	object, err := r.client.Get(ctx, r.Path(), nil)
	if err != nil {
		return fmt.Errorf("loading %s: %w", r, err)
	}

	if object == nil {
		return &UnexpectedResponseError{Message: fmt.Sprintf("%s returned no body", r)}
	}

	return r.populate(object)
}

// populate replaces all cached values with the payload's, decoding each
// attribute through the codec of its kind.
func (r *Resource) populate(object map[string]json.RawMessage) error {
	idRaw, ok := object[r.schema.IDAttribute]
	if !ok || isNull(idRaw) {
		return &UnexpectedResponseError{
			Message: fmt.Sprintf("%s payload has no %q field", r.schema.Name, r.schema.IDAttribute),
		}
	}

	if r.id == nil {
		id, err := decodeAny(idRaw)
		if err != nil {
			return &UnexpectedResponseError{Message: err.Error()}
		}

		r.id = id
	}

	values := make(map[string]interface{}, len(r.schema.Properties))

	for i := range r.schema.Properties {
		prop := &r.schema.Properties[i]

		raw, present := object[prop.Name]
		if !present && prop.Kind != KindDerivedCollection {
			continue
		}

		value, err := codecFor(prop).decode(r, prop, raw)
		if err != nil {
			return &UnexpectedResponseError{Message: fmt.Sprintf("%s: %v", r.schema.Name, err)}
		}

		values[prop.Name] = value
	}

	r.raw = object
	r.values = values
	r.populated = true
	r.lastUpdated = r.client.now()

	return nil
}

// merge folds a partial payload (e.g. a save response without the
// identifier) into the cached values.
func (r *Resource) merge(object map[string]json.RawMessage) error {
	if _, ok := object[r.schema.IDAttribute]; ok {
		return r.populate(object)
	}

	if r.values == nil {
		return nil
	}

	for name, raw := range object {
		prop, ok := r.schema.Property(name)
		if !ok || prop.Kind == KindDerivedCollection {
			continue
		}

		value, err := codecFor(prop).decode(r, prop, raw)
		if err != nil {
			return &UnexpectedResponseError{Message: fmt.Sprintf("%s: %v", r.schema.Name, err)}
		}

		r.values[name] = value
		r.raw[name] = raw
	}

	return nil
}

func (r *Resource) identity(name string) (interface{}, bool) {
	if name == r.schema.IDAttribute {
		return r.id, true
	}

	for i, key := range r.schema.ParentKeys {
		if key == name && i < len(r.parents) {
			return r.parents[i], true
		}
	}

	return nil, false
}

func (r *Resource) volatileExpired(prop *Property) bool {
	if !prop.Volatile || !r.populated {
		return false
	}

	threshold := r.schema.VolatileRefresh
	if threshold <= 0 {
		threshold = r.client.volatileRefresh
	}

	return r.client.now().Sub(r.lastUpdated) > threshold
}

// Get returns an attribute, fetching the resource first when it is not
// populated or when a volatile attribute has gone stale. Identifier
// attributes never trigger a fetch. Pending local edits are returned in
// place of the fetched value.
func (r *Resource) Get(ctx context.Context, name string) (interface{}, error) {
	if value, ok := r.identity(name); ok {
		return value, nil
	}

	prop, ok := r.schema.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, r.schema.Name, name)
	}

	if prop.Identifier {
		return r.id, nil
	}

	if prop.Kind == KindDerivedCollection {
		return r.derived(ctx, prop)
	}

	if r.volatileExpired(prop) {
		r.client.logger.Debug("Volatile attribute expired", map[string]interface{}{
			"type":      r.schema.Name,
			"id":        r.id,
			"attribute": name,
		})
		r.Invalidate()
	}

	if !r.populated {
		err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	if value, ok := r.pending[name]; ok {
		return value, nil
	}

	return r.values[name], nil
}

// Set changes a mutable attribute locally and marks it dirty. No request is
// made until Save.
func (r *Resource) Set(name string, value interface{}) error {
	prop, ok := r.schema.Property(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, r.schema.Name, name)
	}

	if !prop.Mutable || prop.Identifier || prop.Kind == KindDerivedCollection {
		return fmt.Errorf("%w: %s.%s", ErrImmutableAttribute, r.schema.Name, name)
	}

	_, err := codecFor(prop).encode(prop, value)
	if err != nil {
		return err
	}

	r.pending[name] = value

	return nil
}

// Save sends pending edits with PUT. With force, every mutable attribute is
// sent, fetching the resource first if needed. Without force and with no
// pending edits, nothing is sent. On success the response is merged into the
// cache and the pending set is cleared.
func (r *Resource) Save(ctx context.Context, force bool) error {
	if !force && len(r.pending) == 0 {
		return nil
	}

	if force && !r.populated {
		err := r.fetch(ctx)
		if err != nil {
			return err
		}
	}

	body, err := r.serialize(force)
	if err != nil {
		return err
	}

	r.client.logger.Debug("Saving resource", map[string]interface{}{
		"type":       r.schema.Name,
		"id":         r.id,
		"attributes": len(body),
		"force":      force,
	})

	object, err := r.client.Put(ctx, r.Path(), body)
	if err != nil {
		return fmt.Errorf("saving %s: %w", r, err)
	}

	err = r.applySaved(body)
	if err != nil {
		return err
	}

	if object != nil {
		err = r.merge(object)
		if err != nil {
			return err
		}
	}

	r.pending = make(map[string]interface{})

	return nil
}

// applySaved writes the submitted attributes into the cache so a save
// answered without a body (or with a partial one) still reads back the
// saved values. The response, if any, is merged on top.
func (r *Resource) applySaved(body map[string]interface{}) error {
	if r.values == nil {
		return nil
	}

	saved := make(map[string]json.RawMessage, len(body))

	for name, value := range body {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s.%s: %w", r.schema.Name, name, err)
		}

		saved[name] = raw
	}

	if r.raw == nil {
		r.raw = make(map[string]json.RawMessage, len(saved))
	}

	for name, raw := range saved {
		prop, ok := r.schema.Property(name)
		if !ok {
			continue
		}

		value, err := codecFor(prop).decode(r, prop, raw)
		if err != nil {
			return &UnexpectedResponseError{Message: fmt.Sprintf("%s: %v", r.schema.Name, err)}
		}

		r.values[name] = value
		r.raw[name] = raw
	}

	return nil
}

// serialize encodes either the pending set or the full mutable set.
func (r *Resource) serialize(force bool) (map[string]interface{}, error) {
	body := make(map[string]interface{})

	for i := range r.schema.Properties {
		prop := &r.schema.Properties[i]
		if !prop.Mutable || prop.Kind == KindDerivedCollection {
			continue
		}

		value, dirty := r.pending[prop.Name]
		if !dirty {
			if !force {
				continue
			}

			cached, ok := r.values[prop.Name]
			if !ok {
				continue
			}

			value = cached
		}

		encoded, err := codecFor(prop).encode(prop, value)
		if err != nil {
			return nil, err
		}

		body[prop.Name] = encoded
	}

	return body, nil
}

// Invalidate clears the read cache and memoized sub-objects so the next
// read refetches. Pending edits are kept.
func (r *Resource) Invalidate() {
	r.populated = false
	r.raw = nil
	r.values = nil
	r.memo = make(map[string]interface{})
}

// Refresh invalidates and fetches the resource again.
func (r *Resource) Refresh(ctx context.Context) error {
	r.Invalidate()

	return r.fetch(ctx)
}

// Delete removes the remote entity. The local object stays usable for
// reading its identity only.
func (r *Resource) Delete(ctx context.Context) error {
	err := r.client.Delete(ctx, r.Path())
	if err != nil {
		return fmt.Errorf("deleting %s: %w", r, err)
	}

	return nil
}

// Memo returns a cached sub-object, computing it on first use. Invalidate
// drops every memoized value.
func (r *Resource) Memo(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if value, ok := r.memo[key]; ok {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	r.memo[key] = value

	return value, nil
}

// Related returns a relationship attribute as an unpopulated (or embedded)
// reference.
func (r *Resource) Related(ctx context.Context, name string) (*Resource, error) {
	prop, ok := r.schema.Property(name)
	if !ok || prop.Kind != KindRelationship {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotRelationship, r.schema.Name, name)
	}

	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return nil, err
	}

	related, ok := value.(*Resource)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s holds %T", ErrAttributeType, r.schema.Name, name, value)
	}

	return related, nil
}

// Derived returns a derived collection as an untyped list.
func (r *Resource) Derived(ctx context.Context, name string) (*PaginatedList[*Resource], error) {
	prop, ok := r.schema.Property(name)
	if !ok || prop.Kind != KindDerivedCollection {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotDerivedCollection, r.schema.Name, name)
	}

	return r.derived(ctx, prop)
}

func (r *Resource) derived(ctx context.Context, prop *Property) (*PaginatedList[*Resource], error) {
	return derivedOf(ctx, r, prop.Name, func(res *Resource) *Resource { return res })
}

// derivedOf lists a derived collection on first use and memoizes it under a
// key specific to the element type.
func derivedOf[T any](ctx context.Context, r *Resource, name string, wrap func(*Resource) T) (*PaginatedList[T], error) {
	prop, ok := r.schema.Property(name)
	if !ok || prop.Kind != KindDerivedCollection {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotDerivedCollection, r.schema.Name, name)
	}

	key := fmt.Sprintf("derived:%s:%T", name, *new(T))

	value, err := r.Memo(ctx, key, func(ctx context.Context) (interface{}, error) {
		deferred, err := derivedCodec{}.decode(r, prop, nil)
		if err != nil {
			return nil, err
		}

		target, _ := deferred.(*derivedList)

		return listResources(ctx, r.client, target.schema, target.parents, nil, nil, wrap)
	})
	if err != nil {
		return nil, err
	}

	list, _ := value.(*PaginatedList[T])

	return list, nil
}
