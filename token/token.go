// Package token defines the lexical units emitted by the jsontext reader.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Type identifies the kind of a token.
type Type int

const (
	None Type = iota
	StartObject
	StartArray
	StartConstructor
	PropertyName
	Comment
	Raw
	Integer
	Float
	String
	Boolean
	Null
	Undefined
	EndObject
	EndArray
	EndConstructor
	Date
	Bytes
	numTypes
)

var typeStrings = [numTypes]string{
	"None",
	"StartObject",
	"StartArray",
	"StartConstructor",
	"PropertyName",
	"Comment",
	"Raw",
	"Integer",
	"Float",
	"String",
	"Boolean",
	"Null",
	"Undefined",
	"EndObject",
	"EndArray",
	"EndConstructor",
	"Date",
	"Bytes",
}

func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return "Unknown"
	}
	return typeStrings[t]
}

// IsStart reports whether the type opens a container.
func (t Type) IsStart() bool {
	return t == StartObject || t == StartArray || t == StartConstructor
}

// IsEnd reports whether the type closes a container.
func (t Type) IsEnd() bool {
	return t == EndObject || t == EndArray || t == EndConstructor
}

// IsScalar reports whether the type carries a value payload rather than
// marking structure.
func (t Type) IsScalar() bool {
	switch t {
	case Integer, Float, String, Boolean, Null, Undefined, Date, Bytes, Raw:
		return true
	}
	return false
}

// Token is a single lexical unit. The payload field that is meaningful
// depends on Type; the rest are zero. Payloads are owned copies and stay
// valid after the reader moves on.
type Token struct {
	Type Type

	// Quote records the delimiter the scalar was written with:
	// '"', '\'' or 0 for unquoted text.
	Quote byte

	Str   string          // PropertyName, String, Comment, StartConstructor, Raw
	Int   int64           // Integer
	Float float64         // Float
	Bool  bool            // Boolean
	Bytes []byte          // Bytes
	Time  time.Time       // Date; the offset is carried in the Location
	Dec   decimal.Decimal // Float produced through ReadAsDecimal

	// DecValid reports whether Dec holds the Float payload.
	DecValid bool
}

// Value returns the payload as an untyped value, nil for structural tokens.
func (t Token) Value() interface{} {
	switch t.Type {
	case PropertyName, String, Comment, StartConstructor, Raw:
		return t.Str
	case Integer:
		return t.Int
	case Float:
		if t.DecValid {
			return t.Dec
		}
		return t.Float
	case Boolean:
		return t.Bool
	case Bytes:
		return t.Bytes
	case Date:
		return t.Time
	}
	return nil
}

// String renders the token for diagnostics, e.g. "String(hello)".
func (t Token) String() string {
	switch t.Type {
	case PropertyName, String, Comment, StartConstructor, Raw:
		return fmt.Sprintf("%s(%s)", t.Type, t.Str)
	case Integer:
		return fmt.Sprintf("%s(%d)", t.Type, t.Int)
	case Float:
		if t.DecValid {
			return fmt.Sprintf("%s(%s)", t.Type, t.Dec)
		}
		return fmt.Sprintf("%s(%s)", t.Type, strconv.FormatFloat(t.Float, 'g', -1, 64))
	case Boolean:
		return fmt.Sprintf("%s(%t)", t.Type, t.Bool)
	case Bytes:
		return fmt.Sprintf("%s(%d bytes)", t.Type, len(t.Bytes))
	case Date:
		return fmt.Sprintf("%s(%s)", t.Type, t.Time.Format(time.RFC3339))
	}
	return t.Type.String()
}
