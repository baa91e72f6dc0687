package surfaceloop

import (
	"sync"
)

// commandChunkSize is the number of commands per node in the commandQueue
// linked list.
const commandChunkSize = 64

// commandQueue is a chunked linked-list FIFO of commands.
//
// Thread Safety: NOT thread-safe. The Channel mutex guards every call.
//
// Fixed-size chunks keep pushes allocation-free in the steady state, and
// exhausted chunks are recycled through commandChunkPool.
type commandQueue struct {
	head   *commandChunk
	tail   *commandChunk
	length int
}

var commandChunkPool = sync.Pool{
	New: func() any {
		return &commandChunk{}
	},
}

// commandChunk is a fixed-size node, consumed from readPos and filled at pos.
type commandChunk struct {
	cmds    [commandChunkSize]Command
	next    *commandChunk
	readPos int
	pos     int
}

func newCommandChunk() *commandChunk {
	c := commandChunkPool.Get().(*commandChunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnCommandChunk clears the slots so pooled chunks do not retain windows.
func returnCommandChunk(c *commandChunk) {
	for i := 0; i < c.pos; i++ {
		c.cmds[i] = Command{}
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	commandChunkPool.Put(c)
}

func (q *commandQueue) push(cmd Command) {
	if q.tail == nil {
		q.tail = newCommandChunk()
		q.head = q.tail
	}

	if q.tail.pos == len(q.tail.cmds) {
		next := newCommandChunk()
		q.tail.next = next
		q.tail = next
	}

	q.tail.cmds[q.tail.pos] = cmd
	q.tail.pos++
	q.length++
}

func (q *commandQueue) pop() (Command, bool) {
	if q.head == nil || q.length == 0 {
		return Command{}, false
	}

	if q.head.readPos >= q.head.pos {
		// exhausted, and q.length > 0 guarantees a successor
		old := q.head
		q.head = q.head.next
		returnCommandChunk(old)
	}

	cmd := q.head.cmds[q.head.readPos]
	q.head.cmds[q.head.readPos] = Command{}
	q.head.readPos++
	q.length--

	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			// reuse the only chunk in place
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			old := q.head
			q.head = q.head.next
			returnCommandChunk(old)
		}
	}

	return cmd, true
}

func (q *commandQueue) len() int {
	return q.length
}
