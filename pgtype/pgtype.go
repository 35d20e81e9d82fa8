// Package pgtype converts between Go values and the PostgreSQL wire
// representations of their corresponding data types.
//
// Each PostgreSQL type is represented by a Value implementation that can
// convert from and to Go values (Set, Get, AssignTo) and encode and decode
// itself in the text and/or binary wire formats. A ConnInfo maps the type
// OIDs a particular connection knows about to those implementations.
//
// SQL NULL is handled by the framework, not by the codecs: encoders return
// a nil buffer for NULL and the caller writes the -1 length sentinel;
// decoders receive a nil src for NULL.
package pgtype

import (
	"errors"
	"fmt"
	"reflect"
)

// OID is a PostgreSQL object identifier naming a data type.
type OID uint32

// Well-known data type OIDs from pg_type.h.
const (
	BoolOID        OID = 16
	ByteaOID       OID = 17
	QCharOID       OID = 18
	NameOID        OID = 19
	Int8OID        OID = 20
	Int2OID        OID = 21
	Int4OID        OID = 23
	TextOID        OID = 25
	OIDOID         OID = 26
	JSONOID        OID = 114
	Float4OID      OID = 700
	Float8OID      OID = 701
	UnknownOID     OID = 705
	BPCharOID      OID = 1042
	VarcharOID     OID = 1043
	DateOID        OID = 1082
	TimeOID        OID = 1083
	TimestampOID   OID = 1114
	TimestamptzOID OID = 1184
	NumericOID     OID = 1700
	UUIDOID        OID = 2950
	JSONBOID       OID = 3802
)

// PostgreSQL format codes
const (
	TextFormatCode   int16 = 0
	BinaryFormatCode int16 = 1
)

// Status is the state of a Value: never set, SQL NULL, or present.
type Status byte

const (
	Undefined Status = iota
	Null
	Present
)

type InfinityModifier int8

const (
	Infinity         InfinityModifier = 1
	None             InfinityModifier = 0
	NegativeInfinity InfinityModifier = -Infinity
)

func (im InfinityModifier) String() string {
	switch im {
	case None:
		return "none"
	case Infinity:
		return "infinity"
	case NegativeInfinity:
		return "-infinity"
	default:
		return "invalid"
	}
}

// Value is the interface implemented by all PostgreSQL type handlers.
type Value interface {
	// Set converts and assigns src to itself.
	Set(src interface{}) error

	// Get returns the simplest representation of Value. Get may return a
	// pointer to an internal value but it must never mutate that value.
	Get() interface{}

	// AssignTo converts and assigns the Value to dst. It MUST make a deep
	// copy of any reference types.
	AssignTo(dst interface{}) error
}

// BinaryDecoder is implemented by types that can decode themselves from the
// PostgreSQL binary wire format.
type BinaryDecoder interface {
	// DecodeBinary decodes src into BinaryDecoder. If src is nil then the
	// original SQL value is NULL. BinaryDecoder takes ownership of src. The
	// caller MUST not use it again.
	DecodeBinary(ci *ConnInfo, src []byte) error
}

// TextDecoder is implemented by types that can decode themselves from the
// PostgreSQL text wire format.
type TextDecoder interface {
	// DecodeText decodes src into TextDecoder. If src is nil then the
	// original SQL value is NULL. TextDecoder takes ownership of src. The
	// caller MUST not use it again.
	DecodeText(ci *ConnInfo, src []byte) error
}

// BinaryEncoder is implemented by types that can encode themselves into the
// PostgreSQL binary wire format.
type BinaryEncoder interface {
	// EncodeBinary should append the binary format of self to buf. If self
	// is the SQL value NULL then append nothing and return (nil, nil). The
	// caller of EncodeBinary is responsible for writing the correct NULL
	// value or the length of the data written.
	EncodeBinary(ci *ConnInfo, buf []byte) (newBuf []byte, err error)
}

// TextEncoder is implemented by types that can encode themselves into the
// PostgreSQL text wire format.
type TextEncoder interface {
	// EncodeText should append the text format of self to buf. If self is
	// the SQL value NULL then append nothing and return (nil, nil). The
	// caller of EncodeText is responsible for writing the correct NULL
	// value or the length of the data written.
	EncodeText(ci *ConnInfo, buf []byte) (newBuf []byte, err error)
}

var errUndefined = errors.New("cannot encode status undefined")
var errBadStatus = errors.New("invalid status")

// WrongTypeError occurs when no registered codec connects a Go type with a
// PostgreSQL data type.
type WrongTypeError struct {
	GoType string
	OID    OID
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("no codec connects Go type %s and oid %d", e.GoType, e.OID)
}

// DataType connects a PostgreSQL type OID with the Value that handles it.
// Value is a prototype: ConnInfo clones it for each use.
type DataType struct {
	Value Value
	Name  string
	OID   OID
}

// ConnInfo is the per-connection registry of data types. The default set is
// created by NewConnInfo; RegisterDataType layers session-local additions
// and overrides on top without affecting other connections.
type ConnInfo struct {
	oidToDataType         map[OID]*DataType
	nameToDataType        map[string]*DataType
	reflectTypeToDataType map[reflect.Type]*DataType
}

func newConnInfo() *ConnInfo {
	return &ConnInfo{
		oidToDataType:         make(map[OID]*DataType, 32),
		nameToDataType:        make(map[string]*DataType, 32),
		reflectTypeToDataType: make(map[reflect.Type]*DataType, 32),
	}
}

// NewConnInfo creates a ConnInfo with the built-in data types registered.
func NewConnInfo() *ConnInfo {
	ci := newConnInfo()

	ci.RegisterDataType(DataType{Value: &Bool{}, Name: "bool", OID: BoolOID})
	ci.RegisterDataType(DataType{Value: &Bytea{}, Name: "bytea", OID: ByteaOID})
	ci.RegisterDataType(DataType{Value: &QChar{}, Name: "char", OID: QCharOID})
	ci.RegisterDataType(DataType{Value: &Name{}, Name: "name", OID: NameOID})
	ci.RegisterDataType(DataType{Value: &Int8{}, Name: "int8", OID: Int8OID})
	ci.RegisterDataType(DataType{Value: &Int2{}, Name: "int2", OID: Int2OID})
	ci.RegisterDataType(DataType{Value: &Int4{}, Name: "int4", OID: Int4OID})
	ci.RegisterDataType(DataType{Value: &Text{}, Name: "text", OID: TextOID})
	ci.RegisterDataType(DataType{Value: &OIDValue{}, Name: "oid", OID: OIDOID})
	ci.RegisterDataType(DataType{Value: &JSON{}, Name: "json", OID: JSONOID})
	ci.RegisterDataType(DataType{Value: &Float4{}, Name: "float4", OID: Float4OID})
	ci.RegisterDataType(DataType{Value: &Float8{}, Name: "float8", OID: Float8OID})
	ci.RegisterDataType(DataType{Value: &Unknown{}, Name: "unknown", OID: UnknownOID})
	ci.RegisterDataType(DataType{Value: &BPChar{}, Name: "bpchar", OID: BPCharOID})
	ci.RegisterDataType(DataType{Value: &Varchar{}, Name: "varchar", OID: VarcharOID})
	ci.RegisterDataType(DataType{Value: &Date{}, Name: "date", OID: DateOID})
	ci.RegisterDataType(DataType{Value: &Time{}, Name: "time", OID: TimeOID})
	ci.RegisterDataType(DataType{Value: &Timestamp{}, Name: "timestamp", OID: TimestampOID})
	ci.RegisterDataType(DataType{Value: &Timestamptz{}, Name: "timestamptz", OID: TimestamptzOID})
	ci.RegisterDataType(DataType{Value: &Numeric{}, Name: "numeric", OID: NumericOID})
	ci.RegisterDataType(DataType{Value: &UUID{}, Name: "uuid", OID: UUIDOID})
	ci.RegisterDataType(DataType{Value: &JSONB{}, Name: "jsonb", OID: JSONBOID})

	return ci
}

// InitializeDataTypes registers the named types under OIDs discovered at
// runtime, e.g. extension types like hstore and citext whose OIDs are not
// stable.
func (ci *ConnInfo) InitializeDataTypes(nameOIDs map[string]OID) {
	for name, oid := range nameOIDs {
		var value Value
		if dt, ok := ci.nameToDataType[name]; ok {
			value = NewValue(dt.Value)
		} else if v, ok := nameValues[name]; ok {
			value = NewValue(v)
		} else {
			value = &GenericText{}
		}

		ci.RegisterDataType(DataType{Value: value, Name: name, OID: oid})
	}
}

func (ci *ConnInfo) RegisterDataType(t DataType) {
	ci.oidToDataType[t.OID] = &t
	ci.nameToDataType[t.Name] = &t
	ci.reflectTypeToDataType[reflect.ValueOf(t.Value).Type()] = &t
}

func (ci *ConnInfo) DataTypeForOID(oid OID) (*DataType, bool) {
	dt, ok := ci.oidToDataType[oid]
	return dt, ok
}

func (ci *ConnInfo) DataTypeForName(name string) (*DataType, bool) {
	dt, ok := ci.nameToDataType[name]
	return dt, ok
}

func (ci *ConnInfo) DataTypeForValue(v Value) (*DataType, bool) {
	dt, ok := ci.reflectTypeToDataType[reflect.ValueOf(v).Type()]
	return dt, ok
}

// ParamFormatCodeForOID returns the preferred parameter format for oid.
func (ci *ConnInfo) ParamFormatCodeForOID(oid OID) int16 {
	if dt, ok := ci.oidToDataType[oid]; ok {
		if _, ok := dt.Value.(BinaryEncoder); ok {
			return BinaryFormatCode
		}
	}
	return TextFormatCode
}

// ResultFormatCodeForOID returns the preferred result format for oid.
func (ci *ConnInfo) ResultFormatCodeForOID(oid OID) int16 {
	if dt, ok := ci.oidToDataType[oid]; ok {
		if _, ok := dt.Value.(BinaryDecoder); ok {
			return BinaryFormatCode
		}
	}
	return TextFormatCode
}

// DeepCopy makes a deep copy of the ConnInfo.
func (ci *ConnInfo) DeepCopy() *ConnInfo {
	ci2 := newConnInfo()

	for _, dt := range ci.oidToDataType {
		ci2.RegisterDataType(DataType{
			Value: NewValue(dt.Value),
			Name:  dt.Name,
			OID:   dt.OID,
		})
	}

	return ci2
}

// NewValue returns a new instance of the same type as v.
func NewValue(v Value) Value {
	return reflect.New(reflect.ValueOf(v).Elem().Type()).Interface().(Value)
}

// nameValues are prototypes for types that are only registered when their
// OID is discovered at runtime.
var nameValues = map[string]Value{
	"hstore": &Hstore{},
	"citext": &Text{},
}

// Scan decodes src, the raw bytes of a value of type oid in the given
// format, into dst.
func (ci *ConnInfo) Scan(oid OID, formatCode int16, src []byte, dst interface{}) error {
	if dst == nil {
		return nil
	}

	switch formatCode {
	case TextFormatCode:
		if d, ok := dst.(TextDecoder); ok {
			return d.DecodeText(ci, src)
		}
	case BinaryFormatCode:
		if d, ok := dst.(BinaryDecoder); ok {
			return d.DecodeBinary(ci, src)
		}
	default:
		return fmt.Errorf("unknown format code: %v", formatCode)
	}

	dt, ok := ci.DataTypeForOID(oid)
	if !ok {
		// An unknown OID in the text format can still be assigned to
		// string-shaped destinations.
		if formatCode == TextFormatCode {
			value := &GenericText{}
			if err := value.DecodeText(ci, src); err != nil {
				return err
			}
			if err := value.AssignTo(dst); err == nil {
				return nil
			}
		}
		return &WrongTypeError{GoType: fmt.Sprintf("%T", dst), OID: oid}
	}

	value := NewValue(dt.Value)

	switch formatCode {
	case TextFormatCode:
		d, ok := value.(TextDecoder)
		if !ok {
			return &WrongTypeError{GoType: fmt.Sprintf("%T", dst), OID: oid}
		}
		if err := d.DecodeText(ci, src); err != nil {
			return err
		}
	case BinaryFormatCode:
		d, ok := value.(BinaryDecoder)
		if !ok {
			return &WrongTypeError{GoType: fmt.Sprintf("%T", dst), OID: oid}
		}
		if err := d.DecodeBinary(ci, src); err != nil {
			return err
		}
	}

	return value.AssignTo(dst)
}
