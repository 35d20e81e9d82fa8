package pgtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/jackc/pgio"
)

// PostgreSQL internal numeric storage uses 16-bit "digits" with base of 10,000
const nbase = 10000

var big0 *big.Int = big.NewInt(0)
var big10 *big.Int = big.NewInt(10)
var bigNBase *big.Int = big.NewInt(nbase)

var bigMaxInt8 *big.Int = big.NewInt(math.MaxInt8)
var bigMinInt8 *big.Int = big.NewInt(math.MinInt8)
var bigMaxInt16 *big.Int = big.NewInt(math.MaxInt16)
var bigMinInt16 *big.Int = big.NewInt(math.MinInt16)
var bigMaxInt32 *big.Int = big.NewInt(math.MaxInt32)
var bigMinInt32 *big.Int = big.NewInt(math.MinInt32)
var bigMaxInt64 *big.Int = big.NewInt(math.MaxInt64)
var bigMinInt64 *big.Int = big.NewInt(math.MinInt64)

// Numeric represents the PostgreSQL numeric type as an arbitrary precision
// integer coefficient and an exponent: Int * 10^Exp.
type Numeric struct {
	Int    *big.Int
	Exp    int32
	NaN    bool
	Status Status
}

func (dst *Numeric) Set(src interface{}) error {
	if src == nil {
		*dst = Numeric{Status: Null}
		return nil
	}

	if value, ok := src.(interface{ Get() interface{} }); ok {
		value2 := value.Get()
		if value2 != value {
			return dst.Set(value2)
		}
	}

	switch value := src.(type) {
	case float32:
		if math.IsNaN(float64(value)) {
			*dst = Numeric{NaN: true, Status: Present}
			return nil
		}
		num, exp, err := parseNumericString(strconv.FormatFloat(float64(value), 'f', -1, 32))
		if err != nil {
			return err
		}
		*dst = Numeric{Int: num, Exp: exp, Status: Present}
	case float64:
		if math.IsNaN(value) {
			*dst = Numeric{NaN: true, Status: Present}
			return nil
		}
		num, exp, err := parseNumericString(strconv.FormatFloat(value, 'f', -1, 64))
		if err != nil {
			return err
		}
		*dst = Numeric{Int: num, Exp: exp, Status: Present}
	case int8:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case uint8:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case int16:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case uint16:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case int32:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case uint32:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case int64:
		*dst = Numeric{Int: big.NewInt(value), Status: Present}
	case uint64:
		*dst = Numeric{Int: (&big.Int{}).SetUint64(value), Status: Present}
	case int:
		*dst = Numeric{Int: big.NewInt(int64(value)), Status: Present}
	case uint:
		*dst = Numeric{Int: (&big.Int{}).SetUint64(uint64(value)), Status: Present}
	case string:
		num, exp, err := parseNumericString(value)
		if err != nil {
			return err
		}
		*dst = Numeric{Int: num, Exp: exp, Status: Present}
	case *big.Int:
		*dst = Numeric{Int: (&big.Int{}).Set(value), Status: Present}
	default:
		if originalSrc, ok := underlyingNumberType(src); ok {
			return dst.Set(originalSrc)
		}
		return fmt.Errorf("cannot convert %v to Numeric", value)
	}

	return nil
}

func (dst Numeric) Get() interface{} {
	switch dst.Status {
	case Present:
		return dst
	case Null:
		return nil
	default:
		return dst.Status
	}
}

func (src *Numeric) AssignTo(dst interface{}) error {
	switch src.Status {
	case Present:
		switch v := dst.(type) {
		case *float32:
			f, err := src.toFloat64()
			if err != nil {
				return err
			}
			return float64AssignTo(f, src.Status, v)
		case *float64:
			f, err := src.toFloat64()
			if err != nil {
				return err
			}
			return float64AssignTo(f, src.Status, v)
		case *int:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			if !normalizedInt.IsInt64() {
				return fmt.Errorf("%v is out of range for %T", normalizedInt, *v)
			}
			return int64AssignTo(normalizedInt.Int64(), src.Status, v)
		case *int8:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			if normalizedInt.Cmp(bigMinInt8) < 0 || normalizedInt.Cmp(bigMaxInt8) > 0 {
				return fmt.Errorf("%v is out of range for %T", normalizedInt, *v)
			}
			*v = int8(normalizedInt.Int64())
		case *int16:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			if normalizedInt.Cmp(bigMinInt16) < 0 || normalizedInt.Cmp(bigMaxInt16) > 0 {
				return fmt.Errorf("%v is out of range for %T", normalizedInt, *v)
			}
			*v = int16(normalizedInt.Int64())
		case *int32:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			if normalizedInt.Cmp(bigMinInt32) < 0 || normalizedInt.Cmp(bigMaxInt32) > 0 {
				return fmt.Errorf("%v is out of range for %T", normalizedInt, *v)
			}
			*v = int32(normalizedInt.Int64())
		case *int64:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			if !normalizedInt.IsInt64() {
				return fmt.Errorf("%v is out of range for %T", normalizedInt, *v)
			}
			*v = normalizedInt.Int64()
		case *big.Int:
			normalizedInt, err := src.toBigInt()
			if err != nil {
				return err
			}
			v.Set(normalizedInt)
		case *string:
			buf, err := src.EncodeText(nil, nil)
			if err != nil {
				return err
			}
			*v = string(buf)
		default:
			if nextDst, retry := GetAssignToDstType(dst); retry {
				return src.AssignTo(nextDst)
			}
			return fmt.Errorf("unable to assign to %T", dst)
		}
	case Null:
		return NullAssignTo(dst)
	}

	return nil
}

func (src *Numeric) toFloat64() (float64, error) {
	if src.NaN {
		return math.NaN(), nil
	}

	buf, err := src.EncodeText(nil, nil)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, err
	}

	return f, nil
}

func (src *Numeric) toBigInt() (*big.Int, error) {
	if src.Exp == 0 {
		return src.Int, nil
	}

	num := &big.Int{}
	num.Set(src.Int)
	if src.Exp > 0 {
		mul := &big.Int{}
		mul.Exp(big10, big.NewInt(int64(src.Exp)), nil)
		num.Mul(num, mul)
		return num, nil
	}

	div := &big.Int{}
	div.Exp(big10, big.NewInt(int64(-src.Exp)), nil)
	remainder := &big.Int{}
	num.DivMod(num, div, remainder)
	if remainder.Cmp(big0) != 0 {
		return nil, fmt.Errorf("cannot convert %v to integer", src)
	}
	return num, nil
}

func parseNumericString(str string) (n *big.Int, exp int32, err error) {
	if idx := strings.IndexAny(str, "eE"); idx != -1 {
		e, err := strconv.ParseInt(str[idx+1:], 10, 32)
		if err != nil {
			return nil, 0, err
		}
		exp += int32(e)
		str = str[:idx]
	}

	parts := strings.SplitN(str, ".", 2)
	digits := strings.Join(parts, "")

	if len(parts) > 1 {
		exp += int32(-len(parts[1]))
	}

	accum := &big.Int{}
	if _, ok := accum.SetString(digits, 10); !ok {
		return nil, 0, fmt.Errorf("%s is not a number", str)
	}

	return accum, exp, nil
}

func (dst *Numeric) DecodeText(ci *ConnInfo, src []byte) error {
	if src == nil {
		*dst = Numeric{Status: Null}
		return nil
	}

	if string(src) == "NaN" {
		*dst = Numeric{NaN: true, Status: Present}
		return nil
	}

	num, exp, err := parseNumericString(string(src))
	if err != nil {
		return err
	}

	*dst = Numeric{Int: num, Exp: exp, Status: Present}
	return nil
}

func (dst *Numeric) DecodeBinary(ci *ConnInfo, src []byte) error {
	if src == nil {
		*dst = Numeric{Status: Null}
		return nil
	}

	if len(src) < 8 {
		return fmt.Errorf("numeric incomplete %v", src)
	}

	rp := 0
	ndigits := int16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2
	weight := int16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2
	sign := uint16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2
	dscale := int16(binary.BigEndian.Uint16(src[rp:]))
	rp += 2
	_ = dscale

	if sign == 0xc000 {
		*dst = Numeric{NaN: true, Status: Present}
		return nil
	}

	if ndigits == 0 {
		*dst = Numeric{Int: big.NewInt(0), Status: Present}
		return nil
	}

	if len(src[rp:]) < int(ndigits)*2 {
		return fmt.Errorf("numeric incomplete %v", src)
	}

	accum := &big.Int{}
	for i := 0; i < int(ndigits); i++ {
		digit := int64(binary.BigEndian.Uint16(src[rp:]))
		rp += 2
		accum.Mul(accum, bigNBase)
		accum.Add(accum, big.NewInt(digit))
	}

	exp := (int32(weight) - int32(ndigits) + 1) * 4

	// Strip trailing zeroes in the base-10000 representation down to the
	// base-10 exponent.
	for accum.Cmp(big0) != 0 {
		remainder := &big.Int{}
		quotient := &big.Int{}
		quotient.DivMod(accum, big10, remainder)
		if remainder.Cmp(big0) != 0 {
			break
		}
		accum.Set(quotient)
		exp++
	}

	if sign == 0x4000 {
		accum.Neg(accum)
	}

	*dst = Numeric{Int: accum, Exp: exp, Status: Present}

	return nil
}

func (src Numeric) EncodeText(ci *ConnInfo, buf []byte) ([]byte, error) {
	switch src.Status {
	case Null:
		return nil, nil
	case Undefined:
		return nil, errUndefined
	}

	if src.NaN {
		return append(buf, "NaN"...), nil
	}

	if src.Exp >= 0 {
		buf = append(buf, src.Int.String()...)
		for i := int32(0); i < src.Exp; i++ {
			buf = append(buf, '0')
		}
		return buf, nil
	}

	digits := src.Int.String()
	neg := false
	if digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}

	fracDigits := int(-src.Exp)
	for len(digits) <= fracDigits {
		digits = "0" + digits
	}

	if neg {
		buf = append(buf, '-')
	}
	buf = append(buf, digits[:len(digits)-fracDigits]...)
	buf = append(buf, '.')
	buf = append(buf, digits[len(digits)-fracDigits:]...)

	return buf, nil
}

func (src Numeric) EncodeBinary(ci *ConnInfo, buf []byte) ([]byte, error) {
	switch src.Status {
	case Null:
		return nil, nil
	case Undefined:
		return nil, errUndefined
	}

	if src.NaN {
		buf = pgio.AppendInt16(buf, 0)
		buf = pgio.AppendInt16(buf, 0)
		buf = pgio.AppendUint16(buf, 0xc000)
		buf = pgio.AppendInt16(buf, 0)
		return buf, nil
	}

	var sign uint16
	num := &big.Int{}
	num.Set(src.Int)
	if num.Sign() < 0 {
		sign = 0x4000
		num.Neg(num)
	}

	var dscale int16
	if src.Exp < 0 {
		dscale = int16(-src.Exp)
	}

	// Adjust the exponent to a multiple of 4 so the coefficient can be
	// expressed in base-10000 digits.
	exp := src.Exp
	for exp%4 != 0 {
		num.Mul(num, big10)
		exp--
	}

	// Collect base-10000 digits, least significant first.
	var digits []int16
	remainder := &big.Int{}
	for num.Cmp(big0) != 0 {
		num.DivMod(num, bigNBase, remainder)
		digits = append(digits, int16(remainder.Int64()))
	}

	if len(digits) == 0 {
		digits = append(digits, 0)
	}

	weight := int16(exp/4) + int16(len(digits)) - 1

	buf = pgio.AppendInt16(buf, int16(len(digits)))
	buf = pgio.AppendInt16(buf, weight)
	buf = pgio.AppendUint16(buf, sign)
	buf = pgio.AppendInt16(buf, dscale)
	for i := len(digits) - 1; i >= 0; i-- {
		buf = pgio.AppendInt16(buf, digits[i])
	}

	return buf, nil
}
