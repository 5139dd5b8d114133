package cache

import (
	"fmt"

	"github.com/goccy/go-json"

	"namespaced-cache/pkg/validator"
)

// encodeValue serializes a value for stores that keep bytes
func encodeValue(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

// decodeValue restores a value written by encodeValue.
// Objects come back as map[string]any and numbers as float64.
func decodeValue(data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode cache value: %w", err)
	}
	return value, nil
}

func checkKey(key string) error {
	if err := validator.ValidateKey(key); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidKey, key, err)
	}
	return nil
}

func checkKeys(keys []string) error {
	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
	}
	return nil
}

func checkValueKeys(values map[string]any) error {
	for key := range values {
		if err := checkKey(key); err != nil {
			return err
		}
	}
	return nil
}
