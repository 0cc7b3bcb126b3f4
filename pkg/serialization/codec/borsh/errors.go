package borsh

import (
	"errors"
)

var (
	ErrDecodingBool             = errors.New("error decoding boolean")
	ErrInvalidOptionMarker      = errors.New("invalid option marker")
	ErrExceedingLengthLimit     = errors.New("length exceeds max value of uint32")
	ErrEnumIndexTooLarge        = errors.New("enum index does not fit in one byte")
	ErrUnknownEnumTypeValue     = errors.New("unknown enum variant")
	ErrUnsupportedEnumTypeValue = errors.New("unsupported enum variant value")

	ErrUnsupportedType     = "unsupported type: %v"
	ErrReadingBytes        = "error reading bytes: %w"
	ErrTrailingBytes       = "%d trailing bytes after value"
	ErrEncodingStructField = "encoding struct field '%s': %w"
	ErrDecodingStructField = "decoding struct field '%s': %w"
)
