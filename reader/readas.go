package reader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prismmonkey/jsontext/token"
)

// byteArrayTypeName is the type discriminator of the $type/$value wrapper
// form ReadAsBytes accepts.
const byteArrayTypeName = "System.Byte[]"

// dateLayouts are tried in order when coercing a plain string to an
// instant.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// readNonComment advances past comment tokens to the next real token.
func (r *Reader) readNonComment() (bool, error) {
	for {
		ok, err := r.readInternal()
		if err != nil || !ok {
			return ok, err
		}
		if r.tok.Type != token.Comment {
			return true, nil
		}
	}
}

// ReadAsInt32 reads the next non-comment token coerced to a signed 32-bit
// integer. It returns nil at the end of input, on an explicit null and at
// the end of an enclosing array.
func (r *Reader) ReadAsInt32() (*int32, error) {
	r.readMode = readTypeReadAsInt32
	defer func() { r.readMode = readTypeRead }()

	ok, err := r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	switch r.tok.Type {
	case token.Integer:
		v := int32(r.tok.Int)
		return &v, nil
	case token.Null, token.EndArray:
		return nil, nil
	case token.String:
		s := r.tok.Str
		if s == "" {
			if err := r.setToken(token.Token{Type: token.Null}); err != nil {
				return nil, err
			}
			return nil, nil
		}
		parsed, err := strconv.ParseInt(normalizeNumber(s, r.Culture), 10, 32)
		if err != nil {
			return nil, r.fail(ErrCoercionFailure, "could not convert string to integer: %s", s)
		}
		if err := r.setToken(token.Token{Type: token.Integer, Int: parsed, Quote: r.tok.Quote}); err != nil {
			return nil, err
		}
		v := int32(parsed)
		return &v, nil
	default:
		return nil, r.fail(ErrUnexpectedToken, "error reading integer, unexpected token: %s", r.tok.Type)
	}
}

// ReadAsDecimal reads the next non-comment token coerced to an
// arbitrary-precision decimal, with the same nil conventions as
// ReadAsInt32.
func (r *Reader) ReadAsDecimal() (*decimal.Decimal, error) {
	r.readMode = readTypeReadAsDecimal
	defer func() { r.readMode = readTypeRead }()

	ok, err := r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	switch r.tok.Type {
	case token.Float:
		if r.tok.DecValid {
			d := r.tok.Dec
			return &d, nil
		}
		if math.IsNaN(r.tok.Float) || math.IsInf(r.tok.Float, 0) {
			return nil, r.fail(ErrCoercionFailure, "cannot convert %s to a decimal", strconv.FormatFloat(r.tok.Float, 'g', -1, 64))
		}
		d := decimal.NewFromFloat(r.tok.Float)
		return &d, nil
	case token.Integer:
		d := decimal.NewFromInt(r.tok.Int)
		return &d, nil
	case token.Null, token.EndArray:
		return nil, nil
	case token.String:
		s := r.tok.Str
		if s == "" {
			if err := r.setToken(token.Token{Type: token.Null}); err != nil {
				return nil, err
			}
			return nil, nil
		}
		d, err := decimal.NewFromString(normalizeNumber(s, r.Culture))
		if err != nil {
			return nil, r.fail(ErrCoercionFailure, "could not convert string to decimal: %s", s)
		}
		if err := r.setToken(token.Token{Type: token.Float, Dec: d, DecValid: true, Quote: r.tok.Quote}); err != nil {
			return nil, err
		}
		return &d, nil
	default:
		return nil, r.fail(ErrUnexpectedToken, "error reading decimal, unexpected token: %s", r.tok.Type)
	}
}

// ReadAsBytes reads the next non-comment token as a byte blob. Three
// encodings are accepted: a base-64 string, a JSON array of integers 0-255
// and a {"$type": "System.Byte[]...", "$value": "<base64>"} wrapper
// object. nil is returned at end of input, on null and at end-of-array.
func (r *Reader) ReadAsBytes() ([]byte, error) {
	r.readMode = readTypeReadAsBytes
	defer func() { r.readMode = readTypeRead }()

	ok, err := r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	switch r.tok.Type {
	case token.Bytes:
		return r.tok.Bytes, nil
	case token.StartArray:
		return r.readByteArray()
	case token.StartObject:
		return r.readWrappedBytes()
	case token.Null, token.EndArray:
		return nil, nil
	default:
		return nil, r.fail(ErrUnexpectedToken, "error reading bytes, unexpected token: %s", r.tok.Type)
	}
}

// readByteArray accumulates a JSON integer array element by element.
func (r *Reader) readByteArray() ([]byte, error) {
	data := []byte{}
	for {
		ok, err := r.readNonComment()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, r.fail(ErrUnexpectedEnd, "unexpected end of input when reading bytes")
		}
		switch r.tok.Type {
		case token.Integer:
			v := r.tok.Int
			if v < 0 || v > 255 {
				return nil, r.fail(ErrCoercionFailure, "value %d is out of range for a byte", v)
			}
			data = append(data, byte(v))
		case token.EndArray:
			return data, nil
		default:
			return nil, r.fail(ErrUnexpectedToken, "unexpected token when reading bytes: %s", r.tok.Type)
		}
	}
}

// readWrappedBytes consumes the $type/$value wrapper inline, including the
// closing brace, so the wrapper can never be skipped twice.
func (r *Reader) readWrappedBytes() ([]byte, error) {
	if err := r.expectProperty("$type"); err != nil {
		return nil, err
	}

	// the discriminator is an ordinary string, not base-64 content
	r.readMode = readTypeRead
	ok, err := r.readNonComment()
	r.readMode = readTypeReadAsBytes
	if err != nil {
		return nil, err
	}
	if !ok || r.tok.Type != token.String || !strings.HasPrefix(r.tok.Str, byteArrayTypeName) {
		return nil, r.fail(ErrUnexpectedToken, "unexpected $type value when reading bytes")
	}

	if err := r.expectProperty("$value"); err != nil {
		return nil, err
	}
	ok, err = r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok || r.tok.Type != token.Bytes {
		return nil, r.fail(ErrUnexpectedToken, "unexpected $value content when reading bytes")
	}
	data := r.tok.Bytes

	ok, err = r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok || r.tok.Type != token.EndObject {
		return nil, r.fail(ErrUnexpectedToken, "unexpected token in byte wrapper object: %s", r.tok.Type)
	}
	return data, nil
}

func (r *Reader) expectProperty(name string) error {
	ok, err := r.readNonComment()
	if err != nil {
		return err
	}
	if !ok {
		return r.fail(ErrUnexpectedEnd, "unexpected end of input when reading bytes")
	}
	if r.tok.Type != token.PropertyName || r.tok.Str != name {
		return r.fail(ErrUnexpectedToken, "expected %s property when reading bytes, got: %s", name, r.tok)
	}
	return nil
}

// ReadAsDateTimeOffset reads the next non-comment token as an instant
// carrying its offset, with the same nil conventions as ReadAsInt32.
func (r *Reader) ReadAsDateTimeOffset() (*time.Time, error) {
	r.readMode = readTypeReadAsDateTimeOffset
	defer func() { r.readMode = readTypeRead }()

	ok, err := r.readNonComment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	switch r.tok.Type {
	case token.Date:
		t := r.tok.Time
		return &t, nil
	case token.Null, token.EndArray:
		return nil, nil
	case token.String:
		s := r.tok.Str
		if s == "" {
			if err := r.setToken(token.Token{Type: token.Null}); err != nil {
				return nil, err
			}
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, perr := time.Parse(layout, s); perr == nil {
				if err := r.setToken(token.Token{Type: token.Date, Time: t, Quote: r.tok.Quote}); err != nil {
					return nil, err
				}
				return &t, nil
			}
		}
		return nil, r.fail(ErrCoercionFailure, "could not convert string to DateTimeOffset: %s", s)
	default:
		return nil, r.fail(ErrUnexpectedToken, "error reading date, unexpected token: %s", r.tok.Type)
	}
}
