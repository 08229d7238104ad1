package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Amount is a non-negative arbitrary-precision quantity of settlement currency
// or token units. It is stored as decimal text so no backend narrows it.
type Amount struct {
	i sdkmath.Int
}

// ZeroAmount returns 0.
func ZeroAmount() Amount {
	return Amount{i: sdkmath.ZeroInt()}
}

// NewAmount panics on negative input; use ParseAmount for untrusted values.
func NewAmount(v int64) Amount {
	if v < 0 {
		panic("negative amount")
	}
	return Amount{i: sdkmath.NewInt(v)}
}

func NewAmountFromUint64(v uint64) Amount {
	return Amount{i: sdkmath.NewIntFromUint64(v)}
}

// ParseAmount parses a base-10 non-negative integer.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q is not an integer amount", ErrValidation, s)
	}
	if v.IsNegative() {
		return Amount{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	return Amount{i: v}, nil
}

// TenPow returns 10^dec, the token units in one whole credit.
func TenPow(dec int) Amount {
	return Amount{i: sdkmath.NewIntWithDecimal(1, dec)}
}

// Int exposes the value; a zero-value Amount reads as 0.
func (a Amount) Int() sdkmath.Int {
	if a.i.IsNil() {
		return sdkmath.ZeroInt()
	}
	return a.i
}

func (a Amount) Add(b Amount) (Amount, error) {
	v, err := a.Int().SafeAdd(b.Int())
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return Amount{i: v}, nil
}

// Sub refuses to go below zero.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.LT(b) {
		return Amount{}, fmt.Errorf("%w: %s - %s underflows", ErrOverflow, a, b)
	}
	return Amount{i: a.Int().Sub(b.Int())}, nil
}

func (a Amount) Mul(b Amount) (Amount, error) {
	v, err := a.Int().SafeMul(b.Int())
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s * %s", ErrOverflow, a, b)
	}
	return Amount{i: v}, nil
}

func (a Amount) MulInt64(n int64) (Amount, error) {
	if n < 0 {
		return Amount{}, fmt.Errorf("%w: negative multiplier", ErrValidation)
	}
	return a.Mul(Amount{i: sdkmath.NewInt(n)})
}

// QuoInt64 is floor division; n must be positive.
func (a Amount) QuoInt64(n int64) Amount {
	return Amount{i: a.Int().QuoRaw(n)}
}

func (a Amount) IsZero() bool     { return a.Int().IsZero() }
func (a Amount) IsPositive() bool { return a.Int().IsPositive() }
func (a Amount) LT(b Amount) bool { return a.Int().LT(b.Int()) }
func (a Amount) GT(b Amount) bool { return a.Int().GT(b.Int()) }
func (a Amount) GTE(b Amount) bool {
	return a.Int().GTE(b.Int())
}
func (a Amount) Equal(b Amount) bool { return a.Int().Equal(b.Int()) }
func (a Amount) String() string      { return a.Int().String() }

// MarshalJSON writes the amount as a JSON string so clients never lose precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "123" and 123.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ZeroAmount()
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = ZeroAmount()
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d in storage", v)
		}
		*a = NewAmount(v)
		return nil
	default:
		return fmt.Errorf("unsupported type %T for Amount", value)
	}
}

func (a *Amount) scanString(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// GormDataType keeps amounts in text columns on every dialect.
func (Amount) GormDataType() string {
	return "text"
}
