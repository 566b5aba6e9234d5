// Package message defines discrete control events exchanged between
// message-rate ports and the per-block queues that carry them.
package message

import (
	"fmt"
	"strconv"
)

// Kind identifies the payload of a message.
type Kind uint8

const (
	// Bang is a payload-less trigger.
	Bang Kind = iota
	// Float carries a float64 value.
	Float
	// Int carries an int64 value.
	Int
	// String carries a string value.
	String
)

func (k Kind) String() string {
	switch k {
	case Bang:
		return "bang"
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Message is a discrete value. The zero value is a Bang.
type Message struct {
	kind Kind
	f    float64
	i    int64
	s    string
}

// NewBang returns a Bang message.
func NewBang() Message {
	return Message{kind: Bang}
}

// NewFloat returns a Float message.
func NewFloat(v float64) Message {
	return Message{kind: Float, f: v}
}

// NewInt returns an Int message.
func NewInt(v int64) Message {
	return Message{kind: Int, i: v}
}

// NewString returns a String message.
func NewString(v string) Message {
	return Message{kind: String, s: v}
}

// Kind returns the payload kind.
func (m Message) Kind() Kind {
	return m.kind
}

// IsBang reports if m is a Bang.
func (m Message) IsBang() bool {
	return m.kind == Bang
}

// Float returns the numeric value of m. Ints are converted; Bang and
// String report false.
func (m Message) Float() (float64, bool) {
	switch m.kind {
	case Float:
		return m.f, true
	case Int:
		return float64(m.i), true
	}
	return 0, false
}

// Int returns the integer value of m. Floats are truncated towards zero.
func (m Message) Int() (int64, bool) {
	switch m.kind {
	case Int:
		return m.i, true
	case Float:
		return int64(m.f), true
	}
	return 0, false
}

// Str returns the string payload of m.
func (m Message) Str() (string, bool) {
	if m.kind == String {
		return m.s, true
	}
	return "", false
}

func (m Message) String() string {
	switch m.kind {
	case Bang:
		return "bang"
	case Float:
		return strconv.FormatFloat(m.f, 'g', -1, 64)
	case Int:
		return strconv.FormatInt(m.i, 10)
	case String:
		return strconv.Quote(m.s)
	default:
		return fmt.Sprintf("message(%d)", m.kind)
	}
}

// Parse converts textual input into a message. Anything starting with "b"
// is a Bang, integers become Int, other numbers Float and the rest String.
func Parse(s string) Message {
	if s == "" {
		return NewString(s)
	}
	if s[0] == 'b' {
		return NewBang()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NewFloat(f)
	}
	return NewString(s)
}
