package vector

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsonConfig = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes the live elements as a JSON array.
func (v *Vector[T]) MarshalJSON() ([]byte, error) {
	items := v.Slice()
	if items == nil {
		items = []T{}
	}
	return jsonConfig.Marshal(items)
}

// UnmarshalJSON replaces the contents with the decoded array. The vector's
// allocator is kept; on error the vector is unchanged.
func (v *Vector[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := jsonConfig.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "vector: decode")
	}
	n, err := OfWith(v.allocator(), items...)
	if err != nil {
		return err
	}
	v.MoveFrom(n)
	return nil
}
