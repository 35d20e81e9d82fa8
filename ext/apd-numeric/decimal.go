// Package numeric provides a pgtype numeric codec backed by
// github.com/cockroachdb/apd.
package numeric

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd"
	"github.com/vireodb/pgc/pgtype"
)

var errUndefined = fmt.Errorf("cannot encode status undefined")

type Numeric struct {
	Decimal apd.Decimal
	Status  pgtype.Status
}

func (dst *Numeric) Set(src interface{}) error {
	if src == nil {
		*dst = Numeric{Status: pgtype.Null}
		return nil
	}

	if value, ok := src.(interface{ Get() interface{} }); ok {
		value2 := value.Get()
		if value2 != value {
			return dst.Set(value2)
		}
	}

	switch value := src.(type) {
	case apd.Decimal:
		*dst = Numeric{Decimal: value, Status: pgtype.Present}
	case *apd.Decimal:
		*dst = Numeric{Status: pgtype.Present}
		dst.Decimal.Set(value)
	case float32:
		return dst.setString(strconv.FormatFloat(float64(value), 'f', -1, 32))
	case float64:
		return dst.setString(strconv.FormatFloat(value, 'f', -1, 64))
	case int8:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case uint8:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case int16:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case uint16:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case int32:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case uint32:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case int64:
		*dst = Numeric{Decimal: *apd.New(value, 0), Status: pgtype.Present}
	case uint64:
		return dst.setString(strconv.FormatUint(value, 10))
	case int:
		*dst = Numeric{Decimal: *apd.New(int64(value), 0), Status: pgtype.Present}
	case uint:
		return dst.setString(strconv.FormatUint(uint64(value), 10))
	case string:
		return dst.setString(value)
	default:
		// If all else fails see if pgtype.Numeric can handle it. If so,
		// translate through that.
		num := &pgtype.Numeric{}
		if err := num.Set(value); err != nil {
			return fmt.Errorf("cannot convert %v to Numeric", value)
		}

		buf, err := num.EncodeText(nil, nil)
		if err != nil {
			return fmt.Errorf("cannot convert %v to Numeric", value)
		}

		return dst.setString(string(buf))
	}

	return nil
}

func (dst *Numeric) setString(s string) error {
	dec, _, err := apd.NewFromString(s)
	if err != nil {
		return err
	}
	*dst = Numeric{Decimal: *dec, Status: pgtype.Present}
	return nil
}

func (dst Numeric) Get() interface{} {
	switch dst.Status {
	case pgtype.Present:
		return dst.Decimal
	case pgtype.Null:
		return nil
	default:
		return dst.Status
	}
}

func (src *Numeric) AssignTo(dst interface{}) error {
	if src.Status == pgtype.Null {
		return pgtype.NullAssignTo(dst)
	}

	switch v := dst.(type) {
	case *apd.Decimal:
		v.Set(&src.Decimal)
	case *float32:
		f, err := src.Decimal.Float64()
		if err != nil {
			return err
		}
		*v = float32(f)
	case *float64:
		f, err := src.Decimal.Float64()
		if err != nil {
			return err
		}
		*v = f
	case *string:
		*v = src.Decimal.String()
	case *int64:
		n, err := src.Decimal.Int64()
		if err != nil {
			return fmt.Errorf("cannot convert %v to %T", src.Decimal, *v)
		}
		*v = n
	default:
		if nextDst, retry := pgtype.GetAssignToDstType(dst); retry {
			return src.AssignTo(nextDst)
		}
		return fmt.Errorf("unable to assign to %T", dst)
	}

	return nil
}

func (dst *Numeric) DecodeText(ci *pgtype.ConnInfo, src []byte) error {
	if src == nil {
		*dst = Numeric{Status: pgtype.Null}
		return nil
	}

	return dst.setString(string(src))
}

func (dst *Numeric) DecodeBinary(ci *pgtype.ConnInfo, src []byte) error {
	if src == nil {
		*dst = Numeric{Status: pgtype.Null}
		return nil
	}

	// For now at least, implement this in terms of pgtype.Numeric
	num := &pgtype.Numeric{}
	if err := num.DecodeBinary(ci, src); err != nil {
		return err
	}

	coeff := &big.Int{}
	coeff.Abs(num.Int)

	dec := apd.Decimal{Exponent: num.Exp, Negative: num.Int.Sign() < 0}
	dec.Coeff.Set(coeff)

	*dst = Numeric{Decimal: dec, Status: pgtype.Present}
	return nil
}

func (src Numeric) EncodeText(ci *pgtype.ConnInfo, buf []byte) ([]byte, error) {
	switch src.Status {
	case pgtype.Null:
		return nil, nil
	case pgtype.Undefined:
		return nil, errUndefined
	}

	return append(buf, src.Decimal.String()...), nil
}

func (src Numeric) EncodeBinary(ci *pgtype.ConnInfo, buf []byte) ([]byte, error) {
	switch src.Status {
	case pgtype.Null:
		return nil, nil
	case pgtype.Undefined:
		return nil, errUndefined
	}

	// For now at least, implement this in terms of pgtype.Numeric
	num := &pgtype.Numeric{}
	if err := num.DecodeText(ci, []byte(src.Decimal.String())); err != nil {
		return nil, err
	}

	return num.EncodeBinary(ci, buf)
}
