package session

import "supremacy.ai/internal/protocol"

// eventLog keeps the most recent turn events for EVENT_BATCH_REQ replay.
// Cursors start at 1 and never repeat.
type eventLog struct {
	max   int
	next  uint64
	items []loggedEvent
}

type loggedEvent struct {
	cursor uint64
	// civs is the audience; empty means everyone.
	civs []int
	ev   protocol.Event
}

func newEventLog(max int) *eventLog {
	if max <= 0 {
		max = 1024
	}
	return &eventLog{max: max, next: 1}
}

func (l *eventLog) add(ev protocol.Event, civs []int) uint64 {
	c := l.next
	l.next++
	l.items = append(l.items, loggedEvent{cursor: c, civs: civs, ev: ev})
	if over := len(l.items) - l.max; over > 0 {
		l.items = append(l.items[:0], l.items[over:]...)
	}
	return c
}

func (e loggedEvent) visibleTo(civID int) bool {
	if len(e.civs) == 0 {
		return true
	}
	for _, id := range e.civs {
		if id == civID {
			return true
		}
	}
	return false
}

func (e loggedEvent) hasType(types []string) bool {
	if len(types) == 0 {
		return true
	}
	t, _ := e.ev["type"].(string)
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// since returns events after cursor that civID may see, at most limit of
// them, and the cursor to ask from next. gap reports that events after
// cursor were already trimmed.
func (l *eventLog) since(cursor uint64, civID, limit int, types []string) (out []protocol.EventBatchItem, next uint64, gap bool) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	out = []protocol.EventBatchItem{}
	next = cursor
	if len(l.items) > 0 && l.items[0].cursor > cursor+1 {
		gap = true
	}
	for _, e := range l.items {
		if e.cursor <= cursor {
			continue
		}
		if len(out) >= limit {
			break
		}
		next = e.cursor
		if e.visibleTo(civID) && e.hasType(types) {
			out = append(out, protocol.EventBatchItem{Cursor: e.cursor, Event: e.ev})
		}
	}
	return out, next, gap
}
