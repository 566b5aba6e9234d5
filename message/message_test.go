package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/raug/message"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected message.Message
	}{
		{in: "b", expected: message.NewBang()},
		{in: "bang", expected: message.NewBang()},
		{in: "42", expected: message.NewInt(42)},
		{in: "-1", expected: message.NewInt(-1)},
		{in: "0.25", expected: message.NewFloat(0.25)},
		{in: "hello", expected: message.NewString("hello")},
		{in: "", expected: message.NewString("")},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, message.Parse(test.in), test.in)
	}
}

func TestConversions(t *testing.T) {
	f, ok := message.NewInt(3).Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	i, ok := message.NewFloat(-2.7).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(-2), i)

	_, ok = message.NewBang().Float()
	assert.False(t, ok)
	_, ok = message.NewString("x").Int()
	assert.False(t, ok)

	s, ok := message.NewString("x").Str()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	assert.True(t, message.Message{}.IsBang())
	assert.Equal(t, "bang", message.NewBang().String())
	assert.Equal(t, "0.5", message.NewFloat(0.5).String())
	assert.Equal(t, `"x"`, message.NewString("x").String())
}

func TestQueue(t *testing.T) {
	var q message.Queue
	assert.Equal(t, 0, q.Len())

	for i := 0; i < message.QueueCap; i++ {
		assert.True(t, q.Push(message.NewInt(int64(i))))
	}
	assert.False(t, q.Push(message.NewBang()))
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, message.QueueCap, q.Len())
	assert.Equal(t, message.NewInt(0), q.At(0))
	assert.Equal(t, message.NewInt(message.QueueCap-1), q.At(message.QueueCap-1))

	q.Reset()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	q.Push(message.NewBang())
	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(0), q.Dropped())
}

func TestQueueConsume(t *testing.T) {
	var q message.Queue
	q.Push(message.NewInt(1))
	q.Push(message.NewInt(2))
	q.Push(message.NewInt(3))

	q.Consume(2)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, message.NewInt(3), q.At(0))

	q.Consume(0)
	assert.Equal(t, 1, q.Len())
	q.Consume(5)
	assert.Equal(t, 0, q.Len())
}
