package borsh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Marshal encodes v. Supported kinds are bool, fixed width integers,
// strings, byte arrays, arrays, slices, structs, pointers (as options) and
// types implementing EncodeEnum. Platform sized int and uint are rejected.
func Marshal(v interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	bw := byteWriter{
		Writer: buffer,
	}
	err := bw.marshal(v)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{byteWriter{w}}
}

type Encoder struct {
	byteWriter
}

func (e *Encoder) Encode(v any) error {
	return e.marshal(v)
}

type byteWriter struct {
	io.Writer
}

func (bw *byteWriter) marshal(in interface{}) error {
	val := reflect.ValueOf(in)
	if !val.IsValid() {
		return fmt.Errorf(ErrUnsupportedType, in)
	}

	// Pointers are options and are checked before the enum interface, since
	// a pointer to an enum also satisfies EncodeEnum.
	if val.Kind() == reflect.Ptr {
		err := bw.writeOptionMarker(val.IsNil())
		if err != nil {
			return err
		}
		if val.IsNil() {
			return nil
		}
		return bw.marshal(val.Elem().Interface())
	}

	if v, ok := in.(EncodeEnum); ok {
		return bw.encodeEnumType(v)
	}

	return bw.handleReflectTypes(val)
}

func (bw *byteWriter) handleReflectTypes(val reflect.Value) error {
	switch val.Kind() {
	case reflect.Bool:
		return bw.encodeBool(val.Bool())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return bw.encodeFixedWidth(val.Uint(), val.Type().Size())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return bw.encodeFixedWidth(uint64(val.Int()), val.Type().Size())
	case reflect.String:
		return bw.encodeBytes([]byte(val.String()))
	case reflect.Struct:
		return bw.encodeStruct(val)
	case reflect.Array:
		return bw.encodeArray(val)
	case reflect.Slice:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			return bw.encodeBytes(val.Bytes())
		}
		return bw.encodeSlice(val)
	default:
		return fmt.Errorf(ErrUnsupportedType, val.Type())
	}
}

func (bw *byteWriter) encodeEnumType(enum EncodeEnum) error {
	index, value, err := enum.IndexValue()
	if err != nil {
		return err
	}
	if index > math.MaxUint8 {
		return ErrEnumIndexTooLarge
	}

	_, err = bw.Write([]byte{byte(index)})
	if err != nil {
		return err
	}

	if value == nil {
		return nil
	}

	return bw.marshal(value)
}

func (bw *byteWriter) encodeSlice(val reflect.Value) error {
	err := bw.encodeLength(val.Len())
	if err != nil {
		return err
	}
	for i := 0; i < val.Len(); i++ {
		err = bw.marshal(val.Index(i).Interface())
		if err != nil {
			return err
		}
	}
	return nil
}

// encodeArray writes the elements without a length prefix.
func (bw *byteWriter) encodeArray(val reflect.Value) error {
	if val.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, val.Len())
		reflect.Copy(reflect.ValueOf(b), val)
		_, err := bw.Write(b)
		return err
	}

	for i := 0; i < val.Len(); i++ {
		err := bw.marshal(val.Index(i).Interface())
		if err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeBool(b bool) error {
	var err error
	switch b {
	case true:
		_, err = bw.Write([]byte{0x01})
	case false:
		_, err = bw.Write([]byte{0x00})
	}

	return err
}

func (bw *byteWriter) encodeBytes(b []byte) error {
	err := bw.encodeLength(len(b))
	if err != nil {
		return err
	}

	_, err = bw.Write(b)
	return err
}

func (bw *byteWriter) encodeFixedWidth(v uint64, size uintptr) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := bw.Write(buf[:size])
	return err
}

func (bw *byteWriter) writeOptionMarker(isNil bool) error {
	marker := byte(0x00)
	if !isNil {
		marker = byte(0x01)
	}
	_, err := bw.Write([]byte{marker})
	return err
}

func (bw *byteWriter) encodeStruct(val reflect.Value) error {
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := val.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanInterface() {
			continue
		}
		if tag, ok := fieldType.Tag.Lookup("borsh"); ok && tag == "-" {
			continue
		}

		err := bw.marshal(field.Interface())
		if err != nil {
			return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

// encodeLength writes collection lengths as u32 little endian.
func (bw *byteWriter) encodeLength(l int) error {
	if uint64(l) > math.MaxUint32 {
		return ErrExceedingLengthLimit
	}
	return bw.encodeFixedWidth(uint64(l), 4)
}
