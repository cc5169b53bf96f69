package pintos

// registry tracks every live thread (spec §3 "all_list" / invariant I4).
// Unlike the teacher's weak-pointer, GC-scavenged promise registry, a
// thread's lifetime is explicit — it is inserted on creation and removed on
// exit, under the interrupt gate — so no weak references or background
// scavenging are needed; this is a plain intrusive list keyed by allLink.
type registry struct {
	all *threadList
}

func newRegistry() *registry {
	return &registry{
		all: newThreadList(func(t *Thread) *listLink { return &t.allLink }),
	}
}

// Insert adds t to the registry. Caller must hold the interrupt gate.
func (r *registry) Insert(t *Thread) {
	r.all.PushBack(t)
}

// Remove removes t from the registry. Caller must hold the interrupt gate.
func (r *registry) Remove(t *Thread) {
	r.all.Remove(t)
}

// Each iterates every live thread in registration order (thread_foreach).
// Caller must hold the interrupt gate.
func (r *registry) Each(fn func(*Thread)) {
	r.all.Each(fn)
}

// Len reports the number of live threads.
func (r *registry) Len() int {
	return r.all.Len()
}
