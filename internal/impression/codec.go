package impression

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidSnapshot is returned when a stored snapshot cannot be decoded.
var ErrInvalidSnapshot = errors.New("invalid scoring snapshot")

// EncodeSnapshot serializes a scoring breakdown for impression storage.
// CBOR keeps the per-impression payload compact compared to JSON while
// remaining schema-free for future breakdown fields.
func EncodeSnapshot(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a stored snapshot into the given value.
// Used by audit tooling reading impressions back.
func DecodeSnapshot(data []byte, v any) error {
	if len(data) == 0 {
		return ErrInvalidSnapshot
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}
