package pintos

// listLink is one intrusive doubly-linked-list membership slot. A [Thread]
// embeds several of these (one per list it can simultaneously belong to) so
// that inserting or removing a thread from a queue never allocates.
type listLink struct {
	prev, next *Thread
}

// linkFunc selects which of a Thread's several listLink slots a given
// threadList operates on, so the same list implementation serves ready_list,
// all_list, sleep_list and every semaphore/condvar waiter list.
type linkFunc func(*Thread) *listLink

// threadList is an intrusive doubly-linked list of threads. The zero value
// is an empty list once link is set; use newThreadList.
type threadList struct {
	head, tail *Thread
	size       int
	link       linkFunc
}

func newThreadList(link linkFunc) *threadList {
	return &threadList{link: link}
}

func (l *threadList) Len() int { return l.size }

func (l *threadList) Empty() bool { return l.size == 0 }

func (l *threadList) Front() *Thread { return l.head }

func (l *threadList) Next(t *Thread) *Thread { return l.link(t).next }

// PushBack appends t to the tail of the list.
func (l *threadList) PushBack(t *Thread) {
	link := l.link(t)
	link.prev, link.next = l.tail, nil
	if l.tail != nil {
		l.link(l.tail).next = t
	} else {
		l.head = t
	}
	l.tail = t
	l.size++
}

// insertBefore inserts t immediately before mark, which must already be a
// member of the list (or nil, meaning append to the tail).
func (l *threadList) insertBefore(mark, t *Thread) {
	if mark == nil {
		l.PushBack(t)
		return
	}
	markLink := l.link(mark)
	link := l.link(t)
	link.next = mark
	link.prev = markLink.prev
	if markLink.prev != nil {
		l.link(markLink.prev).next = t
	} else {
		l.head = t
	}
	markLink.prev = t
	l.size++
}

// InsertOrdered inserts t in descending-priority order: before the first
// existing element whose priority is strictly lower than t's, preserving
// FIFO order among threads of equal priority (t lands behind its peers).
// This mirrors list_insert_ordered with comparator_thread_priority_greater.
func (l *threadList) InsertOrdered(t *Thread) {
	var cur *Thread
	for cur = l.head; cur != nil; cur = l.link(cur).next {
		if t.EffectivePriority() > cur.EffectivePriority() {
			break
		}
	}
	l.insertBefore(cur, t)
}

// Remove unlinks t from the list. t must be a current member.
func (l *threadList) Remove(t *Thread) {
	link := l.link(t)
	if link.prev != nil {
		l.link(link.prev).next = link.next
	} else {
		l.head = link.next
	}
	if link.next != nil {
		l.link(link.next).prev = link.prev
	} else {
		l.tail = link.prev
	}
	link.prev, link.next = nil, nil
	l.size--
}

// PopFront removes and returns the head of the list, or nil if empty.
func (l *threadList) PopFront() *Thread {
	t := l.head
	if t == nil {
		return nil
	}
	l.Remove(t)
	return t
}

// Max returns the highest-priority member of the list, or nil if empty.
// Ties resolve to the earliest-inserted thread (matching list_max semantics
// applied with comparator_thread_priority_greater).
func (l *threadList) Max() *Thread {
	best := l.head
	if best == nil {
		return nil
	}
	for cur := l.link(best).next; cur != nil; cur = l.link(cur).next {
		if cur.EffectivePriority() > best.EffectivePriority() {
			best = cur
		}
	}
	return best
}

// Each calls fn for every member of the list, in order. fn must not mutate
// list membership of the thread it's passed, beyond what the caller already
// holds the interrupt gate for.
func (l *threadList) Each(fn func(*Thread)) {
	for cur := l.head; cur != nil; {
		next := l.link(cur).next
		fn(cur)
		cur = next
	}
}
