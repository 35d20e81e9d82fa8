package pgtype

import (
	"fmt"
	"math"
)

// QChar is the PostgreSQL internal "char" type (OID 18), a single byte. It
// is distinct from char(1) / bpchar. Its wire representation is the raw
// byte in both formats.
type QChar struct {
	Int    int8
	Status Status
}

func (dst *QChar) Set(src interface{}) error {
	if src == nil {
		*dst = QChar{Status: Null}
		return nil
	}

	if value, ok := src.(interface{ Get() interface{} }); ok {
		value2 := value.Get()
		if value2 != value {
			return dst.Set(value2)
		}
	}

	switch value := src.(type) {
	case int8:
		*dst = QChar{Int: value, Status: Present}
	case uint8:
		if value > math.MaxInt8 {
			return fmt.Errorf("%d is greater than maximum value for QChar", value)
		}
		*dst = QChar{Int: int8(value), Status: Present}
	case rune:
		if value < math.MinInt8 || value > math.MaxInt8 {
			return fmt.Errorf("%v is out of range for QChar", value)
		}
		*dst = QChar{Int: int8(value), Status: Present}
	case string:
		if len(value) != 1 {
			return fmt.Errorf("%v is not a single byte", value)
		}
		*dst = QChar{Int: int8(value[0]), Status: Present}
	default:
		if originalSrc, ok := underlyingNumberType(src); ok {
			return dst.Set(originalSrc)
		}
		return fmt.Errorf("cannot convert %v to QChar", value)
	}

	return nil
}

func (dst QChar) Get() interface{} {
	switch dst.Status {
	case Present:
		return dst.Int
	case Null:
		return nil
	default:
		return dst.Status
	}
}

func (src *QChar) AssignTo(dst interface{}) error {
	return int64AssignTo(int64(src.Int), src.Status, dst)
}

func (dst *QChar) DecodeText(ci *ConnInfo, src []byte) error {
	return dst.DecodeBinary(ci, src)
}

func (dst *QChar) DecodeBinary(ci *ConnInfo, src []byte) error {
	if src == nil {
		*dst = QChar{Status: Null}
		return nil
	}

	if len(src) != 1 {
		return fmt.Errorf(`invalid length for "char": %v`, len(src))
	}

	*dst = QChar{Int: int8(src[0]), Status: Present}
	return nil
}

func (src QChar) EncodeText(ci *ConnInfo, buf []byte) ([]byte, error) {
	return src.EncodeBinary(ci, buf)
}

func (src QChar) EncodeBinary(ci *ConnInfo, buf []byte) ([]byte, error) {
	switch src.Status {
	case Null:
		return nil, nil
	case Undefined:
		return nil, errUndefined
	}

	return append(buf, byte(src.Int)), nil
}
