package linode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func (r *Resource) typeError(name string, want string, value interface{}) error {
	return fmt.Errorf("%w: %s.%s is %T, not %s", ErrAttributeType, r.schema.Name, name, value, want)
}

// GetString returns a string attribute. A null value yields "".
func (r *Resource) GetString(ctx context.Context, name string) (string, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return "", err
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", r.typeError(name, "string", value)
	}
}

// GetInt returns an integer attribute. A null value yields 0.
func (r *Resource) GetInt(ctx context.Context, name string) (int, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return 0, err
	}

	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, r.typeError(name, "int", value)
		}

		return int(n), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, r.typeError(name, "int", value)
	}
}

// GetFloat returns a numeric attribute as float64. A null value yields 0.
func (r *Resource) GetFloat(ctx context.Context, name string) (float64, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return 0, err
	}

	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, r.typeError(name, "float64", value)
		}

		return f, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, r.typeError(name, "float64", value)
	}
}

// GetBool returns a boolean attribute. A null value yields false.
func (r *Resource) GetBool(ctx context.Context, name string) (bool, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return false, err
	}

	b, ok := value.(bool)
	if !ok {
		return false, r.typeError(name, "bool", value)
	}

	return b, nil
}

// GetTime returns a datetime attribute. A null value yields the zero time.
func (r *Resource) GetTime(ctx context.Context, name string) (time.Time, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return time.Time{}, err
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		return *v, nil
	default:
		return time.Time{}, r.typeError(name, "time.Time", value)
	}
}

// GetStrings returns a list-of-strings attribute such as tags.
func (r *Resource) GetStrings(ctx context.Context, name string) ([]string, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return nil, err
	}

	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))

		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, r.typeError(name, "[]string", value)
			}

			out = append(out, str)
		}

		return out, nil
	default:
		return nil, r.typeError(name, "[]string", value)
	}
}

// GetObject returns a nested JSON object attribute such as specs.
func (r *Resource) GetObject(ctx context.Context, name string) (map[string]interface{}, error) {
	value, err := r.Get(ctx, name)
	if err != nil || value == nil {
		return nil, err
	}

	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, r.typeError(name, "object", value)
	}

	return object, nil
}
