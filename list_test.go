package pintos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListThread(tid TID, priority int) *Thread {
	return &Thread{tid: tid, magic: threadMagic, basePriority: priority, priority: priority, holdingLocks: map[*Lock]struct{}{}}
}

func TestThreadListInsertOrderedStrictDescending(t *testing.T) {
	l := newThreadList(func(t *Thread) *listLink { return &t.readyLink })

	a := newListThread(1, 31)
	b := newListThread(2, 40)
	c := newListThread(3, 20)
	d := newListThread(4, 31) // ties with a, must land after it (FIFO)

	l.InsertOrdered(a)
	l.InsertOrdered(b)
	l.InsertOrdered(c)
	l.InsertOrdered(d)

	var order []TID
	l.Each(func(t *Thread) { order = append(order, t.tid) })
	assert.Equal(t, []TID{2, 1, 4, 3}, order)
}

func TestThreadListPopFrontAndRemove(t *testing.T) {
	l := newThreadList(func(t *Thread) *listLink { return &t.readyLink })
	a := newListThread(1, 10)
	b := newListThread(2, 20)
	l.PushBack(a)
	l.PushBack(b)

	require.Equal(t, 2, l.Len())
	l.Remove(a)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, b, l.PopFront())
	assert.True(t, l.Empty())
}

func TestThreadListMaxTiesEarliestInserted(t *testing.T) {
	l := newThreadList(func(t *Thread) *listLink { return &t.readyLink })
	a := newListThread(1, 30)
	b := newListThread(2, 30)
	c := newListThread(3, 10)
	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	assert.Equal(t, a, l.Max())
}

func TestThreadListEmptyMaxIsNil(t *testing.T) {
	l := newThreadList(func(t *Thread) *listLink { return &t.readyLink })
	assert.Nil(t, l.Max())
	assert.Nil(t, l.PopFront())
}
