package main

import "sort"

type EventType string

const (
	EventHireCompletion  EventType = "hire_completion"
	EventSalaryPayment   EventType = "salary_payment"
	EventMissionDeadline EventType = "mission_deadline"
)

// ScheduledEvent is one pending future occurrence. The payload is a
// fixed set of typed fields selected by Type rather than a loose map,
// so handlers never touch untyped data.
type ScheduledEvent struct {
	ID   int64     `json:"id"`
	Type EventType `json:"type"`
	Date GameDate  `json:"date"`

	// hire_completion payload
	TaskID      int64 `json:"task_id,omitempty"`
	RecruiterID int64 `json:"recruiter_id,omitempty"`

	// mission_deadline payload
	MissionID int64 `json:"mission_id,omitempty"`
}

// enqueueEvent assigns the game's next monotonic event ID and inserts
// the event keeping the queue sorted by (date, id). Same-date events
// therefore resolve in creation order.
func (g *Game) enqueueEvent(ev ScheduledEvent) ScheduledEvent {
	g.NextEventID++
	ev.ID = g.NextEventID
	g.Events = append(g.Events, ev)
	sort.SliceStable(g.Events, func(i, j int) bool {
		a, b := g.Events[i], g.Events[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return ev
}

// peekNextEvent returns the earliest pending event without removing it,
// or nil when the queue is empty.
func (g *Game) peekNextEvent() *ScheduledEvent {
	if len(g.Events) == 0 {
		return nil
	}
	return &g.Events[0]
}

// removeEvent deletes the event with the given ID. Removing an absent
// ID is a no-op, matching handlers that already consumed their event.
func (g *Game) removeEvent(id int64) bool {
	for i, ev := range g.Events {
		if ev.ID == id {
			g.Events = append(g.Events[:i], g.Events[i+1:]...)
			return true
		}
	}
	return false
}

// eventsByType filters the queue preserving order.
func (g *Game) eventsByType(t EventType) []ScheduledEvent {
	var out []ScheduledEvent
	for _, ev := range g.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
