package borsh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Unmarshal decodes data into dst, which must be a non-nil pointer. All of
// data must be consumed; leftover bytes are reported as an error.
func Unmarshal(data []byte, dst interface{}) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}

	r := bytes.NewReader(data)
	br := byteReader{Reader: r}
	if err := br.unmarshal(dstv.Elem()); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf(ErrTrailingBytes, r.Len())
	}

	return nil
}

// NewDecoder returns a Decoder reading from reader. Unlike Unmarshal it
// does not require the input to be fully consumed.
func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{
		byteReader{reader},
	}
}

type Decoder struct {
	byteReader
}

func (d *Decoder) Decode(dst any) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}

	return d.unmarshal(dstv.Elem())
}

type byteReader struct {
	io.Reader
}

func (br *byteReader) unmarshal(value reflect.Value) error {
	if value.Kind() != reflect.Ptr && value.CanAddr() {
		if enum, ok := value.Addr().Interface().(EnumType); ok {
			return br.decodeEnum(enum)
		}
	}

	switch value.Kind() {
	case reflect.Bool:
		return br.decodeBool(value)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := br.decodeFixedWidth(value.Type().Size())
		if err != nil {
			return err
		}
		value.SetUint(u)
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := value.Type().Size()
		u, err := br.decodeFixedWidth(size)
		if err != nil {
			return err
		}
		shift := 64 - 8*size
		value.SetInt(int64(u<<shift) >> shift)
		return nil
	case reflect.String:
		b, err := br.decodeBytes()
		if err != nil {
			return err
		}
		value.SetString(string(b))
		return nil
	case reflect.Ptr:
		return br.decodeOption(value)
	case reflect.Struct:
		return br.decodeStruct(value)
	case reflect.Array:
		return br.decodeArray(value)
	case reflect.Slice:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			b, err := br.decodeBytes()
			if err != nil {
				return err
			}
			if len(b) == 0 {
				value.Set(reflect.Zero(value.Type()))
				return nil
			}
			value.SetBytes(b)
			return nil
		}
		return br.decodeSlice(value)
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Type())
	}
}

func (br *byteReader) ReadOctet() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(br.Reader, b[:]); err != nil {
		return 0, fmt.Errorf(ErrReadingBytes, err)
	}
	return b[0], nil
}

func (br *byteReader) decodeEnum(enum EnumType) error {
	b, err := br.ReadOctet()
	if err != nil {
		return err
	}

	val, err := enum.ValueAt(uint(b))
	if err != nil {
		return err
	}

	if val == nil {
		return enum.SetValue(b)
	}

	tempVal := reflect.New(reflect.TypeOf(val))
	tempVal.Elem().Set(reflect.ValueOf(val))

	if err := br.unmarshal(tempVal.Elem()); err != nil {
		return err
	}

	return enum.SetValue(tempVal.Elem().Interface())
}

func (br *byteReader) decodeOption(value reflect.Value) error {
	marker, err := br.ReadOctet()
	if err != nil {
		return err
	}

	switch marker {
	case 0x00:
		value.Set(reflect.Zero(value.Type()))
		return nil
	case 0x01:
		elem := reflect.New(value.Type().Elem())
		if err := br.unmarshal(elem.Elem()); err != nil {
			return err
		}
		value.Set(elem)
		return nil
	default:
		return ErrInvalidOptionMarker
	}
}

// decodeSlice appends element by element so a corrupt length cannot force
// a large allocation up front. Empty slices decode as nil.
func (br *byteReader) decodeSlice(value reflect.Value) error {
	l, err := br.decodeLength()
	if err != nil {
		return err
	}

	result := reflect.Zero(value.Type())
	elemType := value.Type().Elem()
	for i := uint32(0); i < l; i++ {
		elem := reflect.New(elemType).Elem()
		if err := br.unmarshal(elem); err != nil {
			return err
		}
		result = reflect.Append(result, elem)
	}
	value.Set(result)

	return nil
}

func (br *byteReader) decodeArray(value reflect.Value) error {
	if value.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, value.Len())
		if _, err := io.ReadFull(br.Reader, b); err != nil {
			return fmt.Errorf(ErrReadingBytes, err)
		}
		reflect.Copy(value, reflect.ValueOf(b))
		return nil
	}

	for i := 0; i < value.Len(); i++ {
		if err := br.unmarshal(value.Index(i)); err != nil {
			return err
		}
	}

	return nil
}

func (br *byteReader) decodeStruct(value reflect.Value) error {
	t := value.Type()

	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}
		if tag, ok := fieldType.Tag.Lookup("borsh"); ok && tag == "-" {
			continue
		}

		if err := br.unmarshal(field); err != nil {
			return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

func (br *byteReader) decodeBool(value reflect.Value) error {
	rb, err := br.ReadOctet()
	if err != nil {
		return err
	}

	switch rb {
	case 0x00:
		value.SetBool(false)
	case 0x01:
		value.SetBool(true)
	default:
		return ErrDecodingBool
	}

	return nil
}

func (br *byteReader) decodeFixedWidth(size uintptr) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br.Reader, buf[:size]); err != nil {
		return 0, fmt.Errorf(ErrReadingBytes, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (br *byteReader) decodeLength() (uint32, error) {
	l, err := br.decodeFixedWidth(4)
	if err != nil {
		return 0, err
	}
	return uint32(l), nil
}

func (br *byteReader) decodeBytes() ([]byte, error) {
	l, err := br.decodeLength()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, br.Reader, int64(l)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf(ErrReadingBytes, err)
	}
	return buf.Bytes(), nil
}
