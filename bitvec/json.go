package bitvec

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsonConfig = jsoniter.ConfigDefault

// MarshalJSON writes the elements as a JSON array of booleans.
func (v *Vector) MarshalJSON() ([]byte, error) {
	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteArrayStart()
	for i := 0; i < v.size; i++ {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteBool(has(v.buf, i))
	}
	stream.WriteArrayEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON replaces the contents with a decoded array of booleans. On
// error v is unchanged.
func (v *Vector) UnmarshalJSON(data []byte) error {
	iter := jsonConfig.BorrowIterator(data)
	defer jsonConfig.ReturnIterator(iter)

	n := New(WithAllocator(v.allocator()))
	iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
		b := iter.ReadBool()
		if iter.Error != nil {
			return false
		}
		if err := n.Push(b); err != nil {
			iter.ReportError("bitvec", err.Error())
			return false
		}
		return true
	})
	if iter.Error != nil {
		n.Release()
		return errors.Wrap(iter.Error, "bitvec: decode")
	}
	v.MoveFrom(n)
	return nil
}
