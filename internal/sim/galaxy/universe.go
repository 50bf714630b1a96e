package galaxy

import (
	"sort"
	"sync"
)

// Universe is the object table. Reads return results ordered by object id
// so every phase iterates deterministically.
type Universe struct {
	Map SectorMap

	mu      sync.RWMutex
	objects map[int]Object
	nextID  int
}

func NewUniverse(m SectorMap) *Universe {
	return &Universe{Map: m, objects: map[int]Object{}, nextID: 1}
}

// Add registers o, assigning an id when it has none.
func (u *Universe) Add(o Object) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	b := o.base()
	if b.ID == 0 {
		b.ID = u.nextID
	}
	if b.ID >= u.nextID {
		u.nextID = b.ID + 1
	}
	u.objects[b.ID] = o
	return b.ID
}

func (u *Universe) Remove(id int) {
	u.mu.Lock()
	delete(u.objects, id)
	u.mu.Unlock()
}

func (u *Universe) Get(id int) Object {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.objects[id]
}

func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}

// All returns every object sorted by id.
func (u *Universe) All() []Object {
	u.mu.RLock()
	out := make([]Object, 0, len(u.objects))
	for _, o := range u.objects {
		out = append(out, o)
	}
	u.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID() < out[j].ObjectID() })
	return out
}

// Lookup fetches an object by id with a type check.
func Lookup[T Object](u *Universe, id int) (T, bool) {
	v, ok := u.Get(id).(T)
	return v, ok
}

// Find returns every object of type T, sorted by id.
func Find[T Object](u *Universe) []T {
	return FindWhere[T](u, func(T) bool { return true })
}

func FindOwned[T Object](u *Universe, civID int) []T {
	return FindWhere[T](u, func(o T) bool { return o.Owner() == civID })
}

func FindAt[T Object](u *Universe, l MapLocation) []T {
	return FindWhere[T](u, func(o T) bool { return o.Loc() == l })
}

func FindWhere[T Object](u *Universe, pred func(T) bool) []T {
	u.mu.RLock()
	out := make([]T, 0)
	for _, o := range u.objects {
		if v, ok := o.(T); ok && pred(v) {
			out = append(out, v)
		}
	}
	u.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID() < out[j].ObjectID() })
	return out
}
