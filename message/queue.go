package message

// QueueCap is the number of messages a single input can receive within
// one block.
const QueueCap = 16

// Queue is a fixed capacity message buffer owned by one input port.
// Messages live for one block; the executor resets the queue after the
// owning node has processed. Push and Reset never allocate.
type Queue struct {
	buf     [QueueCap]Message
	n       int
	dropped uint64
}

// Push appends m. If the queue is full m is dropped and false is returned.
func (q *Queue) Push(m Message) bool {
	if q.n == QueueCap {
		q.dropped++
		return false
	}
	q.buf[q.n] = m
	q.n++
	return true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return q.n
}

// At returns the i-th queued message.
func (q *Queue) At(i int) Message {
	return q.buf[i]
}

// Reset empties the queue.
func (q *Queue) Reset() {
	for i := 0; i < q.n; i++ {
		q.buf[i] = Message{}
	}
	q.n = 0
}

// Clear empties the queue and forgets dropped messages.
func (q *Queue) Clear() {
	q.Reset()
	q.dropped = 0
}

// Dropped returns how many messages were rejected because the queue was
// full.
func (q *Queue) Dropped() uint64 {
	return q.dropped
}

// Consume removes the first k messages, keeping messages pushed after them
// for the next block.
func (q *Queue) Consume(k int) {
	if k <= 0 {
		return
	}
	if k >= q.n {
		q.Reset()
		return
	}
	rest := copy(q.buf[:], q.buf[k:q.n])
	for i := rest; i < q.n; i++ {
		q.buf[i] = Message{}
	}
	q.n = rest
}
