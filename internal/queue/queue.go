// Package queue implements the engine's event priority queue: a min-heap
// ordered by (timestamp, sequence) where the sequence number gives
// same-timestamp events a deterministic tie-break.
//
// Two counters feed the sequence: an ascending "back" counter for regular,
// FIFO-ordered events, and a descending "front" counter (starting at -1)
// for tick and reactive events that should preempt anything else due at
// the same instant. Because the descending counter only ever produces
// negative values and the ascending one only non-negative ones, a
// front-inserted event at a given timestamp always sorts before a regular
// event at that same timestamp, and among front-inserted events the most
// recently inserted sorts first (LIFO), while regular events at the same
// timestamp stay FIFO.
package queue

import (
	"container/heap"
	"time"

	"github.com/xlatomapp/racebacktest/internal/domain/events"
)

type item struct {
	when  time.Time
	order int64
	event events.Event
}

type heapSlice []item

func (h heapSlice) Len() int { return len(h) }
func (h heapSlice) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].order < h[j].order
	}
	return h[i].when.Before(h[j].when)
}
func (h heapSlice) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heapSlice) Push(x interface{}) {
	*h = append(*h, x.(item))
}
func (h *heapSlice) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is the engine's event priority queue.
type Queue struct {
	items        heapSlice
	backCounter  int64
	frontCounter int64 // next value handed out is frontCounter, then decremented
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{frontCounter: -1}
}

// Len returns the number of events currently queued.
func (q *Queue) Len() int { return len(q.items) }

// Push enqueues a regular event, ordered FIFO among events sharing a
// timestamp.
func (q *Queue) Push(when time.Time, event events.Event) {
	heap.Push(&q.items, item{when: when, order: q.backCounter, event: event})
	q.backCounter++
}

// PushFront enqueues an event that should preempt regular events due at
// the same timestamp (ticks, and bet confirmations reacting to a request
// processed moments earlier). Among several front-inserted events sharing
// a timestamp, the most recently pushed fires first.
func (q *Queue) PushFront(when time.Time, event events.Event) {
	heap.Push(&q.items, item{when: when, order: q.frontCounter, event: event})
	q.frontCounter--
}

// Peek returns the next event's timestamp without removing it; ok is false
// when the queue is empty.
func (q *Queue) Peek() (when time.Time, ok bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].when, true
}

// Pop removes and returns the next event in priority order.
func (q *Queue) Pop() (time.Time, events.Event, bool) {
	if len(q.items) == 0 {
		return time.Time{}, nil, false
	}
	it := heap.Pop(&q.items).(item)
	return it.when, it.event, true
}

// PendingTimes returns the timestamps of every queued event that is not a
// TimeEvent and is strictly after after, for the next-tick scheduling
// policy to consider as a wake candidate.
func (q *Queue) PendingTimes(after time.Time) []time.Time {
	var out []time.Time
	for _, it := range q.items {
		if _, isTick := it.event.(events.TimeEvent); isTick {
			continue
		}
		if it.when.After(after) {
			out = append(out, it.when)
		}
	}
	return out
}

// HasNonTimeEvent reports whether any queued event is not a TimeEvent.
func (q *Queue) HasNonTimeEvent() bool {
	for _, it := range q.items {
		if _, isTick := it.event.(events.TimeEvent); !isTick {
			return true
		}
	}
	return false
}
