package assistants

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// joinPath appends field to a dotted error path.
func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// indexPath appends an array index to a dotted error path.
func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// parseObject checks that data is a JSON object and returns it for field lookups.
// gjson is used to peek at discriminators and field presence without decoding
// the whole payload twice.
func parseObject(path string, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, &MalformedPayloadError{Path: path, Err: errors.New("invalid JSON")}
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return gjson.Result{}, &MalformedPayloadError{Path: path, Err: fmt.Errorf("expected object, got %s", obj.Type)}
	}
	return obj, nil
}

// requireFields fails with MissingRequiredFieldError for the first field that is
// absent or null.
func requireFields(obj gjson.Result, path string, fields ...string) error {
	for _, field := range fields {
		if r := obj.Get(gjson.Escape(field)); !r.Exists() || r.Type == gjson.Null {
			return &MissingRequiredFieldError{Field: joinPath(path, field)}
		}
	}
	return nil
}

// discriminator reads the "type" tag of a union object.
func discriminator(obj gjson.Result, path string) (string, error) {
	if err := requireFields(obj, path, "type"); err != nil {
		return "", err
	}
	tag := obj.Get("type")
	if tag.Type != gjson.String {
		return "", &MalformedPayloadError{Path: joinPath(path, "type"), Err: fmt.Errorf("expected string, got %s", tag.Type)}
	}
	return tag.Str, nil
}

// variantObject returns the nested object named after the active tag.
func variantObject(obj gjson.Result, path, tag string) (gjson.Result, error) {
	field := joinPath(path, tag)
	payload := obj.Get(gjson.Escape(tag))
	if !payload.Exists() || payload.Type == gjson.Null {
		return gjson.Result{}, &MalformedPayloadError{Path: field, Err: errors.New("field is absent")}
	}
	if !payload.IsObject() {
		return gjson.Result{}, &MalformedPayloadError{Path: field, Err: fmt.Errorf("expected object, got %s", payload.Type)}
	}
	return payload, nil
}

// arrayField returns the array stored under name.
func arrayField(obj gjson.Result, path, name string) ([]gjson.Result, error) {
	field := joinPath(path, name)
	value := obj.Get(gjson.Escape(name))
	if !value.Exists() || value.Type == gjson.Null {
		return nil, &MalformedPayloadError{Path: field, Err: errors.New("field is absent")}
	}
	if !value.IsArray() {
		return nil, &MalformedPayloadError{Path: field, Err: fmt.Errorf("expected array, got %s", value.Type)}
	}
	return value.Array(), nil
}

// stringField returns the string stored under name.
func stringField(obj gjson.Result, path, name string) (string, error) {
	field := joinPath(path, name)
	value := obj.Get(gjson.Escape(name))
	if !value.Exists() || value.Type == gjson.Null {
		return "", &MalformedPayloadError{Path: field, Err: errors.New("field is absent")}
	}
	if value.Type != gjson.String {
		return "", &MalformedPayloadError{Path: field, Err: fmt.Errorf("expected string, got %s", value.Type)}
	}
	return value.Str, nil
}
