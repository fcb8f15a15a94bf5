package linode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// codec converts one attribute between its JSON form and the value held in
// a Resource. There is one codec per PropertyKind.
type codec interface {
	decode(owner *Resource, prop *Property, raw json.RawMessage) (interface{}, error)
	encode(prop *Property, value interface{}) (interface{}, error)
}

var codecs = map[PropertyKind]codec{
	KindPlain:             plainCodec{},
	KindDatetime:          datetimeCodec{},
	KindRelationship:      relationshipCodec{},
	KindDerivedCollection: derivedCodec{},
}

func codecFor(prop *Property) codec {
	if c, ok := codecs[prop.Kind]; ok {
		return c
	}

	return plainCodec{}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeAny decodes JSON keeping numbers as json.Number.
func decodeAny(raw json.RawMessage) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}

	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("decoding attribute: %w", err)
	}

	return value, nil
}

type plainCodec struct{}

func (plainCodec) decode(_ *Resource, _ *Property, raw json.RawMessage) (interface{}, error) {
	if isNull(raw) {
		return nil, nil
	}

	return decodeAny(raw)
}

func (plainCodec) encode(_ *Property, value interface{}) (interface{}, error) {
	return value, nil
}

type datetimeCodec struct{}

// ParseDatetime parses the API's timestamp format, falling back to RFC 3339.
func ParseDatetime(value string) (time.Time, error) {
	parsed, err := time.Parse(constants.DatetimeLayout, value)
	if err == nil {
		return parsed, nil
	}

	parsed, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing datetime %q: %w", value, err)
	}

	return parsed.UTC(), nil
}

func (datetimeCodec) decode(_ *Resource, prop *Property, raw json.RawMessage) (interface{}, error) {
	if isNull(raw) {
		return nil, nil
	}

	var text string

	err := json.Unmarshal(raw, &text)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: expected datetime string: %w", prop.Name, err)
	}

	return ParseDatetime(text)
}

func (datetimeCodec) encode(prop *Property, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC().Format(constants.DatetimeLayout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}

		return v.UTC().Format(constants.DatetimeLayout), nil
	default:
		return nil, fmt.Errorf("%w: %s expects time.Time, got %T", ErrAttributeType, prop.Name, value)
	}
}

// relationshipCodec turns an id (or an embedded object) into an unpopulated
// or pre-populated reference. References are never fetched automatically.
type relationshipCodec struct{}

func (relationshipCodec) decode(owner *Resource, prop *Property, raw json.RawMessage) (interface{}, error) {
	if isNull(raw) {
		return nil, nil
	}

	target, ok := owner.client.registry.Lookup(prop.Target)
	if !ok {
		return nil, fmt.Errorf("%w: relationship %s targets unknown type %q", ErrUnknownAttribute, prop.Name, prop.Target)
	}

	var parents []interface{}
	if target.IsDerived() {
		resolved, err := target.resolveParents(owner.parents)
		if err != nil {
			return nil, fmt.Errorf("relationship %s: %w", prop.Name, err)
		}

		parents = resolved
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var object map[string]json.RawMessage

		err := json.Unmarshal(trimmed, &object)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", prop.Name, err)
		}

		return owner.client.fromJSON(target, parents, object)
	}

	id, err := decodeAny(trimmed)
	if err != nil {
		return nil, err
	}

	return owner.client.newResource(target, id, parents), nil
}

func (relationshipCodec) encode(_ *Property, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case interface{ ID() interface{} }:
		return v.ID(), nil
	default:
		return value, nil
	}
}

// derivedList is the deferred form of a derived collection: enough to list
// the children of one parent on first access.
type derivedList struct {
	schema  *Schema
	parents []interface{}
}

type derivedCodec struct{}

func (derivedCodec) decode(owner *Resource, prop *Property, _ json.RawMessage) (interface{}, error) {
	target, ok := owner.client.registry.Lookup(prop.Target)
	if !ok {
		return nil, fmt.Errorf("%w: derived collection %s targets unknown type %q", ErrUnknownAttribute, prop.Name, prop.Target)
	}

	parents := append(append([]interface{}(nil), owner.parents...), owner.id)

	return &derivedList{schema: target, parents: parents}, nil
}

func (derivedCodec) encode(prop *Property, _ interface{}) (interface{}, error) {
	return nil, fmt.Errorf("%w: %s", ErrImmutableAttribute, prop.Name)
}
