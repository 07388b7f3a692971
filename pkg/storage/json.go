package storage

import (
	"encoding/json"
	"fmt"
)

// PutJSON stores v JSON-encoded under key.
func PutJSON(b Backend, bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return b.Put(bucket, key, data)
}

// GetJSON decodes the value under key into v. It reports false when the key
// does not exist.
func GetJSON(b Backend, bucket, key []byte, v any) (bool, error) {
	data, err := b.Get(bucket, key)
	if err != nil {
		return false, err
	}

	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode JSON: %w", err)
	}

	return true, nil
}

// ForEachJSON decodes every value of bucket into a fresh T and passes it to fn.
func ForEachJSON[T any](b Backend, bucket []byte, fn func(key []byte, v T) error) error {
	return b.ForEach(bucket, func(k, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode JSON for key %s: %w", k, err)
		}
		return fn(k, v)
	})
}
