package borsh

// EncodeEnum is implemented by tagged unions. The index is written as a
// single byte followed by the encoding of value, if any.
type EncodeEnum interface {
	IndexValue() (index uint, value any, err error)
}

// EnumType is an EncodeEnum that can also be decoded. ValueAt returns a
// zero value of the variant stored at index, SetValue stores the decoded
// variant.
type EnumType interface {
	EncodeEnum
	ValueAt(index uint) (value any, err error)
	SetValue(value any) error
}
