package reader

import (
	"bytes"
	"encoding/base64"
	"math"
	"strconv"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/prismmonkey/jsontext/token"
)

// readInternal drives one token out of the window, dispatching on the
// structural state.
func (r *Reader) readInternal() (bool, error) {
	for {
		switch r.state {
		case stateStart, stateProperty, stateArray, stateArrayStart, stateConstructor, stateConstructorStart:
			return r.parseValue()
		case stateObject, stateObjectStart:
			return r.parseObject()
		case statePostValue:
			done, err := r.parsePostValue()
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		case stateFinished:
			return r.parseFinished()
		case stateComplete:
			return false, nil
		case stateClosed:
			return false, ErrClosed
		case stateError:
			return false, r.err
		default:
			return false, r.fail(ErrIllegalState, "unexpected state: %d", r.state)
		}
	}
}

// parseValue dispatches on the first character of a value.
func (r *Reader) parseValue() (bool, error) {
	w := r.window
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos == w.used {
				ok, err := w.ensureChars(0, false)
				if err != nil {
					return false, r.failRead(err)
				}
				if !ok {
					if r.state == stateStart {
						r.tok = token.Token{}
						r.state = stateComplete
						return false, nil
					}
					return false, r.fail(ErrUnexpectedEnd, "unexpected end of input when reading a value")
				}
			} else {
				w.pos++
			}
		case ch == '"' || ch == '\'':
			return r.parseStringToken(ch)
		case ch == 't':
			return r.parseLiteral("true", token.Token{Type: token.Boolean, Bool: true}, "boolean")
		case ch == 'f':
			return r.parseLiteral("false", token.Token{Type: token.Boolean}, "boolean")
		case ch == 'n':
			return r.parseNullOrConstructor()
		case ch == 'u':
			return r.parseLiteral("undefined", token.Token{Type: token.Undefined}, "undefined")
		case ch == 'N':
			return r.parseLiteral("NaN", token.Token{Type: token.Float, Float: math.NaN()}, "NaN")
		case ch == 'I':
			return r.parseLiteral("Infinity", token.Token{Type: token.Float, Float: math.Inf(1)}, "Infinity")
		case ch == '-':
			ok, err := w.ensureChars(1, true)
			if err != nil {
				return false, r.failRead(err)
			}
			if ok && w.chars[w.pos+1] == 'I' {
				return r.parseLiteral("-Infinity", token.Token{Type: token.Float, Float: math.Inf(-1)}, "-Infinity")
			}
			return r.parseNumber()
		case ch >= '0' && ch <= '9', ch == '.':
			return r.parseNumber()
		case ch == '/':
			return r.parseComment()
		case ch == '{':
			w.pos++
			return true, r.setToken(token.Token{Type: token.StartObject})
		case ch == '[':
			w.pos++
			return true, r.setToken(token.Token{Type: token.StartArray})
		case ch == ']':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndArray}); err != nil {
				return false, err
			}
			return true, nil
		case ch == ')':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndConstructor}); err != nil {
				return false, err
			}
			return true, nil
		case ch == ',':
			// an elided value; the comma itself is handled at PostValue
			return true, r.setToken(token.Token{Type: token.Undefined})
		case ch == ' ' || ch == '\t':
			w.pos++
		case ch == '\r':
			if err := r.processCarriageReturn(false); err != nil {
				return false, err
			}
		case ch == '\n':
			r.processLineFeed()
		default:
			skipped, err := r.trySkipUnicodeSpace(false)
			if err != nil {
				return false, err
			}
			if !skipped {
				return false, r.fail(ErrUnexpectedCharacter, "unexpected character encountered while parsing value: %c", r.runeAt())
			}
		}
	}
}

// parseNullOrConstructor decides between the null literal and new Ctor(...)
// from the character after 'n'.
func (r *Reader) parseNullOrConstructor() (bool, error) {
	w := r.window
	ok, err := w.ensureChars(1, true)
	if err != nil {
		return false, r.failRead(err)
	}
	if !ok {
		return false, r.fail(ErrUnexpectedEnd, "unexpected end of input when reading a value")
	}
	switch w.chars[w.pos+1] {
	case 'u':
		return r.parseLiteral("null", token.Token{Type: token.Null}, "null")
	case 'e':
		return r.parseConstructor()
	default:
		return false, r.fail(ErrUnexpectedCharacter, "unexpected character encountered while parsing value: %c", rune(w.chars[w.pos]))
	}
}

func (r *Reader) parseLiteral(word string, tok token.Token, label string) (bool, error) {
	ok, err := r.matchValueWithTrailingSeparator(word)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, r.fail(ErrUnexpectedCharacter, "error parsing %s value", label)
	}
	return true, r.setToken(tok)
}

// matchValue consumes word if the window starts with it at pos.
func (r *Reader) matchValue(word string) (bool, error) {
	w := r.window
	ok, err := w.ensureChars(len(word)-1, true)
	if err != nil {
		return false, r.failRead(err)
	}
	if !ok || !bytes.Equal(w.chars[w.pos:w.pos+len(word)], []byte(word)) {
		return false, nil
	}
	w.pos += len(word)
	return true, nil
}

// matchValueWithTrailingSeparator additionally requires EOF or a separator
// after the word, so that e.g. "truex" is rejected as a whole.
func (r *Reader) matchValueWithTrailingSeparator(word string) (bool, error) {
	matched, err := r.matchValue(word)
	if err != nil || !matched {
		return false, err
	}
	w := r.window
	ok, err := w.ensureChars(0, false)
	if err != nil {
		return false, r.failRead(err)
	}
	if !ok {
		return true, nil
	}
	return r.isSeparator(w.chars[w.pos])
}

func (r *Reader) isSeparator(ch byte) (bool, error) {
	w := r.window
	switch ch {
	case '}', ']', ',':
		return true, nil
	case '/':
		// only a comment start separates
		ok, err := w.ensureChars(1, false)
		if err != nil {
			return false, r.failRead(err)
		}
		return ok && w.chars[w.pos+1] == '*', nil
	case ')':
		return r.state == stateConstructor || r.state == stateConstructorStart, nil
	case ' ', '\t', '\r', '\n':
		return true, nil
	case 0:
		return w.pos == w.used, nil
	}
	if ch >= utf8.RuneSelf {
		c, _ := utf8.DecodeRune(w.chars[w.pos:w.used])
		return unicode.IsSpace(c), nil
	}
	return false, nil
}

// parseStringToken scans a quoted scalar and emits the token the current
// read mode asks for: Bytes under ReadAsBytes, a Date when the content is a
// /Date(...)/ literal, a String otherwise.
func (r *Reader) parseStringToken(quote byte) (bool, error) {
	w := r.window
	w.pos++
	w.shiftIfNeeded()
	if err := r.readStringIntoBuffer(quote); err != nil {
		return false, err
	}

	if r.readMode == readTypeReadAsBytes {
		data, err := base64.StdEncoding.DecodeString(r.ref.materialize())
		r.ref = stringReference{}
		if err != nil {
			return false, r.fail(ErrCoercionFailure, "could not decode base64 string: %s", err)
		}
		if data == nil {
			data = []byte{}
		}
		return true, r.setToken(token.Token{Type: token.Bytes, Bytes: data, Quote: quote})
	}

	s := r.ref.materialize()
	r.ref = stringReference{}
	if tok, ok := r.tryParseDateToken(s, quote); ok {
		return true, r.setToken(tok)
	}
	return true, r.setToken(token.Token{Type: token.String, Str: s, Quote: quote})
}

// readStringIntoBuffer scans up to the closing quote, leaving the content
// in r.ref. When no escape occurs the reference aliases the window
// directly; otherwise the decoded text is accumulated in the string buffer.
func (r *Reader) readStringIntoBuffer(quote byte) error {
	w := r.window
	initialPos := w.pos
	lastWritePos := w.pos
	buf := (*stringBuffer)(nil)

	for {
		ch := w.chars[w.pos]
		switch ch {
		case 0:
			if w.pos == w.used {
				n, err := w.readData(true, 1)
				if err != nil {
					return r.failRead(err)
				}
				if n == 0 {
					return r.fail(ErrUnterminatedString, "unterminated string, expected delimiter: %c", rune(quote))
				}
			} else {
				w.pos++
			}
		case '\\':
			escapeStart := w.pos
			ok, err := w.ensureChars(1, true)
			if err != nil {
				return r.failRead(err)
			}
			if !ok {
				return r.fail(ErrUnterminatedString, "unterminated string, unexpected end of input in escape sequence")
			}
			w.pos++
			if buf == nil {
				buf = r.stringBuf()
				buf.reset()
			}
			buf.appendBytes(w.chars[lastWritePos:escapeStart])
			if err := r.appendEscapedChar(buf); err != nil {
				return err
			}
			lastWritePos = w.pos
		case '\r':
			if err := r.processCarriageReturn(true); err != nil {
				return err
			}
		case '\n':
			r.processLineFeed()
		case quote:
			if initialPos == lastWritePos {
				r.ref = stringReference{chars: w.chars, start: initialPos, length: w.pos - initialPos}
			} else {
				buf.appendBytes(w.chars[lastWritePos:w.pos])
				r.ref = stringReference{chars: buf.chars, start: 0, length: buf.position}
			}
			w.pos++
			return nil
		default:
			w.pos++
		}
	}
}

// appendEscapedChar decodes the escape whose introducing backslash has
// already been consumed; pos is on the escape letter.
func (r *Reader) appendEscapedChar(buf *stringBuffer) error {
	w := r.window
	c := w.chars[w.pos]
	switch c {
	case 'b':
		buf.appendByte('\b')
	case 't':
		buf.appendByte('\t')
	case 'n':
		buf.appendByte('\n')
	case 'f':
		buf.appendByte('\f')
	case 'r':
		buf.appendByte('\r')
	case '\\', '"', '\'', '/':
		buf.appendByte(c)
	case 'u':
		w.pos++
		return r.appendUnicodeEscape(buf)
	default:
		return r.fail(ErrBadEscape, "bad escape sequence: \\%c", rune(c))
	}
	w.pos++
	return nil
}

// appendUnicodeEscape reads the four hex digits of a \uXXXX escape; when
// the unit opens a surrogate pair, an immediately following \uXXXX is
// combined with it. Unpaired halves degrade to U+FFFD.
func (r *Reader) appendUnicodeEscape(buf *stringBuffer) error {
	w := r.window
	u, err := r.parseUnicodeHex()
	if err != nil {
		return err
	}
	if !utf16.IsSurrogate(u) {
		buf.appendRune(u)
		return nil
	}

	ok, err := w.ensureChars(1, true)
	if err != nil {
		return r.failRead(err)
	}
	if ok && w.chars[w.pos] == '\\' && w.chars[w.pos+1] == 'u' {
		w.pos += 2
		u2, err := r.parseUnicodeHex()
		if err != nil {
			return err
		}
		if combined := utf16.DecodeRune(u, u2); combined != utf8.RuneError {
			buf.appendRune(combined)
			return nil
		}
		buf.appendRune(u)
		buf.appendRune(u2)
		return nil
	}
	buf.appendRune(u)
	return nil
}

func (r *Reader) parseUnicodeHex() (rune, error) {
	w := r.window
	ok, err := w.ensureChars(3, true)
	if err != nil {
		return 0, r.failRead(err)
	}
	if !ok {
		return 0, r.fail(ErrBadEscape, "unexpected end of input in unicode escape sequence")
	}
	var v rune
	for i := 0; i < 4; i++ {
		c := w.chars[w.pos+i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | rune(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | rune(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | rune(c-'A'+10)
		default:
			return 0, r.fail(ErrBadEscape, "invalid unicode escape sequence: \\u%s", string(w.chars[w.pos:w.pos+4]))
		}
	}
	w.pos += 4
	return v, nil
}

// isNumberChar reports whether readNumberIntoBuffer keeps consuming:
// digits, hex digits and markers, sign, point and exponent.
func isNumberChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c == '.', c == '+', c == '-', c == 'x', c == 'X':
		return true
	}
	return false
}

func (r *Reader) readNumberIntoBuffer() error {
	w := r.window
	for {
		ch := w.chars[w.pos]
		if ch == 0 {
			if w.pos != w.used {
				return nil
			}
			n, err := w.readData(true, 1)
			if err != nil {
				return r.failRead(err)
			}
			if n == 0 {
				return nil
			}
			continue
		}
		if !isNumberChar(ch) {
			return nil
		}
		w.pos++
	}
}

// parseNumber scans a numeric lexeme and materializes it according to the
// read mode: int64/float64 by default, 32-bit checked for ReadAsInt32,
// arbitrary-precision for ReadAsDecimal. Hex and octal forms are integral
// only.
func (r *Reader) parseNumber() (bool, error) {
	w := r.window
	w.shiftIfNeeded()
	initialPos := w.pos
	firstChar := w.chars[w.pos]
	if err := r.readNumberIntoBuffer(); err != nil {
		return false, err
	}
	s := string(w.chars[initialPos:w.pos])

	singleDigit := len(s) == 1 && firstChar >= '0' && firstChar <= '9'
	nonBase10 := firstChar == '0' && len(s) > 1 && s[1] != '.' && s[1] != 'e' && s[1] != 'E'

	var tok token.Token
	switch r.readMode {
	case readTypeReadAsInt32:
		switch {
		case singleDigit:
			tok = token.Token{Type: token.Integer, Int: int64(firstChar - '0')}
		case nonBase10:
			v, err := parseNonBase10(s)
			if err != nil {
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid integer", s)
			}
			if v < math.MinInt32 || v > math.MaxInt32 {
				return false, r.fail(ErrIntegerOverflow, "JSON integer %s is too large or small for an Int32", s)
			}
			tok = token.Token{Type: token.Integer, Int: v}
		default:
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				if isRangeError(err) {
					return false, r.fail(ErrIntegerOverflow, "JSON integer %s is too large or small for an Int32", s)
				}
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid integer", s)
			}
			tok = token.Token{Type: token.Integer, Int: v}
		}
	case readTypeReadAsDecimal:
		switch {
		case singleDigit:
			tok = token.Token{Type: token.Float, Dec: decimal.NewFromInt(int64(firstChar - '0')), DecValid: true}
		case nonBase10:
			v, err := parseNonBase10(s)
			if err != nil {
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid decimal", s)
			}
			tok = token.Token{Type: token.Float, Dec: decimal.NewFromInt(v), DecValid: true}
		default:
			d, err := decimal.NewFromString(s)
			if err != nil {
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid decimal", s)
			}
			tok = token.Token{Type: token.Float, Dec: d, DecValid: true}
		}
	default:
		switch {
		case singleDigit:
			tok = token.Token{Type: token.Integer, Int: int64(firstChar - '0')}
		case nonBase10:
			v, err := parseNonBase10(s)
			if err != nil {
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid number", s)
			}
			tok = token.Token{Type: token.Integer, Int: v}
		case bytes.ContainsAny([]byte(s), ".eE"):
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid number", s)
			}
			tok = token.Token{Type: token.Float, Float: f}
		default:
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				if isRangeError(err) {
					return false, r.fail(ErrIntegerOverflow, "JSON integer %s is too large or small for an Int64", s)
				}
				return false, r.fail(ErrUnexpectedCharacter, "input string %q is not a valid number", s)
			}
			tok = token.Token{Type: token.Integer, Int: v}
		}
	}

	return true, r.setToken(tok)
}

// parseNonBase10 converts 0x/0X hex or leading-zero octal lexemes. The
// octal loop deliberately accepts the digits 8 and 9 without complaint,
// matching the behavior this grammar inherited.
func parseNonBase10(s string) (int64, error) {
	if len(s) > 2 && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	if len(s) > 1 && (s[1] == 'x' || s[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	var v int64
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
		d := int64(c - '0')
		if v > (math.MaxInt64-d)/8 {
			return 0, strconv.ErrRange
		}
		v = v*8 + d
	}
	return v, nil
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// parseComment scans a /* ... */ block comment and emits it as a token.
func (r *Reader) parseComment() (bool, error) {
	w := r.window
	w.pos++
	ok, err := w.ensureChars(0, true)
	if err != nil {
		return false, r.failRead(err)
	}
	if !ok {
		return false, r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing comment")
	}
	if w.chars[w.pos] != '*' {
		return false, r.fail(ErrUnexpectedCharacter, "error parsing comment, expected '*', got %c", r.runeAt())
	}
	w.pos++
	w.shiftIfNeeded()
	initialPos := w.pos

	for {
		ch := w.chars[w.pos]
		switch ch {
		case 0:
			if w.pos == w.used {
				n, err := w.readData(true, 1)
				if err != nil {
					return false, r.failRead(err)
				}
				if n == 0 {
					return false, r.fail(ErrUnexpectedEnd, "unexpected end while parsing comment")
				}
			} else {
				w.pos++
			}
		case '*':
			w.pos++
			ok, err := w.ensureChars(0, true)
			if err != nil {
				return false, r.failRead(err)
			}
			if ok && w.chars[w.pos] == '/' {
				text := string(w.chars[initialPos : w.pos-1])
				w.pos++
				return true, r.setToken(token.Token{Type: token.Comment, Str: text})
			}
		case '\r':
			if err := r.processCarriageReturn(true); err != nil {
				return false, err
			}
		case '\n':
			r.processLineFeed()
		default:
			w.pos++
		}
	}
}

// parseObject positions on the next member of an object: a closing brace, a
// comment or a property name.
func (r *Reader) parseObject() (bool, error) {
	w := r.window
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos == w.used {
				ok, err := w.ensureChars(0, false)
				if err != nil {
					return false, r.failRead(err)
				}
				if !ok {
					return false, r.fail(ErrUnexpectedEnd, "unexpected end of input when reading an object")
				}
			} else {
				w.pos++
			}
		case ch == '}':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndObject}); err != nil {
				return false, err
			}
			return true, nil
		case ch == '/':
			return r.parseComment()
		case ch == '\r':
			if err := r.processCarriageReturn(false); err != nil {
				return false, err
			}
		case ch == '\n':
			r.processLineFeed()
		case ch == ' ' || ch == '\t':
			w.pos++
		default:
			skipped, err := r.trySkipUnicodeSpace(false)
			if err != nil {
				return false, err
			}
			if !skipped {
				return r.parseProperty()
			}
		}
	}
}

// parseProperty scans a quoted or unquoted property name up to its colon.
func (r *Reader) parseProperty() (bool, error) {
	w := r.window
	firstChar := w.chars[w.pos]
	var quote byte

	if firstChar == '"' || firstChar == '\'' {
		quote = firstChar
		w.pos++
		w.shiftIfNeeded()
		if err := r.readStringIntoBuffer(quote); err != nil {
			return false, err
		}
	} else if isValidIdentifierChar(firstChar) {
		if err := r.parseUnquotedProperty(); err != nil {
			return false, err
		}
	} else {
		return false, r.fail(ErrBadIdentifier, "invalid property identifier character: %c", r.runeAt())
	}

	name := r.ref.materialize()
	r.ref = stringReference{}

	more, err := r.eatWhitespace()
	if err != nil {
		return false, err
	}
	if !more {
		return false, r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing property name")
	}
	if w.chars[w.pos] != ':' {
		return false, r.fail(ErrUnexpectedCharacter, "invalid character after parsing property name, expected ':', got %c", r.runeAt())
	}
	w.pos++

	return true, r.setToken(token.Token{Type: token.PropertyName, Str: name, Quote: quote})
}

func isValidIdentifierChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '$':
		return true
	}
	return false
}

func (r *Reader) parseUnquotedProperty() error {
	w := r.window
	w.shiftIfNeeded()
	initialPos := w.pos
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos != w.used {
				r.ref = stringReference{chars: w.chars, start: initialPos, length: w.pos - initialPos}
				return nil
			}
			n, err := w.readData(true, 1)
			if err != nil {
				return r.failRead(err)
			}
			if n == 0 {
				return r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing unquoted property name")
			}
		case isValidIdentifierChar(ch):
			w.pos++
		case ch == ':', ch == ' ', ch == '\t', ch == '\r', ch == '\n':
			r.ref = stringReference{chars: w.chars, start: initialPos, length: w.pos - initialPos}
			return nil
		default:
			if ch >= utf8.RuneSelf {
				c, _ := utf8.DecodeRune(w.chars[w.pos:w.used])
				if unicode.IsSpace(c) {
					r.ref = stringReference{chars: w.chars, start: initialPos, length: w.pos - initialPos}
					return nil
				}
			}
			return r.fail(ErrBadIdentifier, "invalid JavaScript property identifier character: %c", r.runeAt())
		}
	}
}

// parseConstructor scans new Name( and emits StartConstructor; the
// arguments are then read as ordinary values.
func (r *Reader) parseConstructor() (bool, error) {
	w := r.window
	matched, err := r.matchValueWithTrailingSeparator("new")
	if err != nil {
		return false, err
	}
	if !matched {
		return false, r.fail(ErrUnexpectedCharacter, "unexpected content while parsing JSON")
	}

	more, err := r.eatWhitespace()
	if err != nil {
		return false, err
	}
	if !more {
		return false, r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing constructor")
	}

	w.shiftIfNeeded()
	initialPos := w.pos
	endPos := -1
	for endPos < 0 {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos != w.used {
				return false, r.fail(ErrUnexpectedCharacter, "unexpected character while parsing constructor: %c", rune(ch))
			}
			n, err := w.readData(true, 1)
			if err != nil {
				return false, r.failRead(err)
			}
			if n == 0 {
				return false, r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing constructor")
			}
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			w.pos++
		case ch == '(':
			endPos = w.pos
		case ch == ' ' || ch == '\t':
			endPos = w.pos
			w.pos++
		case ch == '\r':
			endPos = w.pos
			if err := r.processCarriageReturn(true); err != nil {
				return false, err
			}
		case ch == '\n':
			endPos = w.pos
			r.processLineFeed()
		default:
			return false, r.fail(ErrUnexpectedCharacter, "unexpected character while parsing constructor: %c", r.runeAt())
		}
	}
	name := string(w.chars[initialPos:endPos])

	more, err = r.eatWhitespace()
	if err != nil {
		return false, err
	}
	if !more {
		return false, r.fail(ErrUnexpectedEnd, "unexpected end of input while parsing constructor")
	}
	if w.chars[w.pos] != '(' {
		return false, r.fail(ErrUnexpectedCharacter, "unexpected character while parsing constructor: %c", r.runeAt())
	}
	w.pos++

	return true, r.setToken(token.Token{Type: token.StartConstructor, Str: name})
}

// parsePostValue decides what follows a completed value: a container end, a
// comment, a separator or the end of input. It returns true when a token
// was emitted and false when the outer loop should continue.
func (r *Reader) parsePostValue() (bool, error) {
	w := r.window
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos == w.used {
				ok, err := w.ensureChars(0, false)
				if err != nil {
					return false, r.failRead(err)
				}
				if !ok {
					r.state = stateFinished
					return false, nil
				}
			} else {
				w.pos++
			}
		case ch == '}':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndObject}); err != nil {
				return false, err
			}
			return true, nil
		case ch == ']':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndArray}); err != nil {
				return false, err
			}
			return true, nil
		case ch == ')':
			w.pos++
			if err := r.setToken(token.Token{Type: token.EndConstructor}); err != nil {
				return false, err
			}
			return true, nil
		case ch == '/':
			return r.parseComment()
		case ch == ',':
			w.pos++
			if err := r.setStateBasedOnCurrent(); err != nil {
				return false, err
			}
			return false, nil
		case ch == ' ' || ch == '\t':
			w.pos++
		case ch == '\r':
			if err := r.processCarriageReturn(false); err != nil {
				return false, err
			}
		case ch == '\n':
			r.processLineFeed()
		default:
			skipped, err := r.trySkipUnicodeSpace(false)
			if err != nil {
				return false, err
			}
			if !skipped {
				return false, r.fail(ErrUnexpectedCharacter, "after parsing a value an unexpected character was encountered: %c", r.runeAt())
			}
		}
	}
}

// parseFinished allows only whitespace and comments after the top-level
// value.
func (r *Reader) parseFinished() (bool, error) {
	w := r.window
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos == w.used {
				ok, err := w.ensureChars(0, false)
				if err != nil {
					return false, r.failRead(err)
				}
				if !ok {
					r.tok = token.Token{}
					r.state = stateComplete
					return false, nil
				}
			} else {
				w.pos++
			}
		case ch == '/':
			return r.parseComment()
		case ch == ' ' || ch == '\t':
			w.pos++
		case ch == '\r':
			if err := r.processCarriageReturn(false); err != nil {
				return false, err
			}
		case ch == '\n':
			r.processLineFeed()
		default:
			skipped, err := r.trySkipUnicodeSpace(false)
			if err != nil {
				return false, err
			}
			if !skipped {
				return false, r.fail(ErrTrailingGarbage, "additional text encountered after finished reading JSON content: %c", r.runeAt())
			}
		}
	}
}

// eatWhitespace consumes whitespace between tokens; false means EOF.
func (r *Reader) eatWhitespace() (bool, error) {
	w := r.window
	for {
		ch := w.chars[w.pos]
		switch {
		case ch == 0:
			if w.pos == w.used {
				ok, err := w.ensureChars(0, false)
				if err != nil {
					return false, r.failRead(err)
				}
				if !ok {
					return false, nil
				}
			} else {
				w.pos++
			}
		case ch == ' ' || ch == '\t':
			w.pos++
		case ch == '\r':
			if err := r.processCarriageReturn(false); err != nil {
				return false, err
			}
		case ch == '\n':
			r.processLineFeed()
		default:
			if ch >= utf8.RuneSelf {
				skipped, err := r.trySkipUnicodeSpace(false)
				if err != nil {
					return false, err
				}
				if skipped {
					continue
				}
			}
			return true, nil
		}
	}
}

// processCarriageReturn consumes a CR and an optionally following LF as one
// logical newline. appendData keeps the window prefix intact when a token
// is in flight.
func (r *Reader) processCarriageReturn(appendData bool) error {
	w := r.window
	w.pos++
	ok, err := w.ensureChars(0, appendData)
	if err != nil {
		return r.failRead(err)
	}
	if ok && w.chars[w.pos] == '\n' {
		w.pos++
	}
	r.onNewLine(w.pos)
	return nil
}

func (r *Reader) processLineFeed() {
	r.window.pos++
	r.onNewLine(r.window.pos)
}

// trySkipUnicodeSpace decodes the rune at pos, refilling a split sequence,
// and consumes it when it is whitespace.
func (r *Reader) trySkipUnicodeSpace(appendData bool) (bool, error) {
	w := r.window
	if w.chars[w.pos] < utf8.RuneSelf {
		return false, nil
	}
	for n := 1; n < utf8.UTFMax; n++ {
		ok, err := w.ensureChars(n, appendData)
		if err != nil {
			return false, r.failRead(err)
		}
		if !ok {
			break
		}
	}
	c, size := utf8.DecodeRune(w.chars[w.pos:w.used])
	if c != utf8.RuneError && unicode.IsSpace(c) {
		w.pos += size
		return true, nil
	}
	return false, nil
}

// runeAt decodes the character at pos for error messages.
func (r *Reader) runeAt() rune {
	w := r.window
	if w.pos >= w.used {
		return 0
	}
	c, _ := utf8.DecodeRune(w.chars[w.pos:w.used])
	return c
}
