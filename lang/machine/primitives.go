package machine

import (
	"fmt"
	"strconv"
)

// Number is a 64-bit floating point value, Horst's only numeric type.
type Number float64

var _ Value = Number(0)

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (Number) Type() string     { return "number" }

// String is an immutable Horst string value.
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

// Boolean is a Horst true/false value.
type Boolean bool

var _ Value = Boolean(false)

func (b Boolean) String() string { return fmt.Sprintf("%t", bool(b)) }
func (Boolean) Type() string     { return "boolean" }
