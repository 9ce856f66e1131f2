package eventsub

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// object is a decoded JSON object whose member values are still raw. Each
// accessor reports a *DecodeError carrying the key and the object's path.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

func decodeObject(raw json.RawMessage, path string) (object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return object{}, &DecodeError{Kind: NotAnObject, Path: path, Err: err}
	}
	if fields == nil {
		return object{}, &DecodeError{Kind: NotAnObject, Path: path}
	}
	return object{path: path, fields: fields}, nil
}

func (o object) missing(key string) error {
	return &DecodeError{Kind: MissingKey, Key: key, Path: o.path}
}

func (o object) wrongType(key string, err error) error {
	return &DecodeError{Kind: WrongType, Key: key, Path: o.path, Err: err}
}

func (o object) child(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

func (o object) lookup(key string) (json.RawMessage, error) {
	raw, ok := o.fields[key]
	if !ok {
		return nil, o.missing(key)
	}
	return raw, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// decodeValue unmarshals a required, non-null value of type T.
func decodeValue[T any](o object, key string) (T, error) {
	var v T
	raw, err := o.lookup(key)
	if err != nil {
		return v, err
	}
	if isNull(raw) {
		return v, o.wrongType(key, nil)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, o.wrongType(key, err)
	}
	return v, nil
}

func (o object) str(key string) (string, error) {
	return decodeValue[string](o, key)
}

func (o object) boolean(key string) (bool, error) {
	return decodeValue[bool](o, key)
}

// count reads a non-negative integer.
func (o object) count(key string) (int, error) {
	n, err := decodeValue[int](o, key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, o.wrongType(key, nil)
	}
	return n, nil
}

// nullableStr reads a required key that may be null; null becomes "".
func (o object) nullableStr(key string) (string, error) {
	raw, err := o.lookup(key)
	if err != nil {
		return "", err
	}
	if isNull(raw) {
		return "", nil
	}
	return o.str(key)
}

// optionalStr reads a key that may be absent or null.
func (o object) optionalStr(key string) (*string, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	s, err := o.str(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// optionalInt reads a non-negative integer that may be absent or null.
func (o object) optionalInt(key string) (*int, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	n, err := o.count(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// lenientStr reads a string if present and well-typed, and reports absence
// otherwise. It never fails.
func (o object) lenientStr(key string) (string, bool) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o object) object(key string) (object, error) {
	raw, err := o.lookup(key)
	if err != nil {
		return object{}, err
	}
	obj, err := decodeObject(raw, o.child(key))
	if err != nil {
		return object{}, o.wrongType(key, nil)
	}
	return obj, nil
}

// optionalObject reads a nested object that may be absent or null.
func (o object) optionalObject(key string) (object, bool, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return object{}, false, nil
	}
	obj, err := o.object(key)
	if err != nil {
		return object{}, false, err
	}
	return obj, true, nil
}

func (o object) strings(key string) ([]string, error) {
	return decodeValue[[]string](o, key)
}

// objects reads an array whose elements are all objects.
func (o object) objects(key string) ([]object, error) {
	items, err := decodeValue[[]json.RawMessage](o, key)
	if err != nil {
		return nil, err
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		obj, err := decodeObject(item, o.child(key))
		if err != nil {
			return nil, o.wrongType(key, nil)
		}
		out = append(out, obj)
	}
	return out, nil
}

// optionalStringMap reads an object of string values that may be absent.
func (o object) optionalStringMap(key string) (map[string]string, error) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, o.wrongType(key, err)
	}
	return m, nil
}
