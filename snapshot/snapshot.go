// Package snapshot maintains the cached blob the home-screen widgets read.
// The widgets never see an error: malformed or absent data decodes to the
// canonical empty snapshot.
package snapshot

import "github.com/bytedance/sonic"

// Task is one row of the widget list.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
	DueDate   string `json:"dueDate,omitempty"`
	Completed bool   `json:"completed"`
}

// Snapshot is the serialized widget read surface.
type Snapshot struct {
	TodayCount  int    `json:"todayCount"`
	Tasks       []Task `json:"tasks"`
	LastUpdated string `json:"lastUpdated"`
}

// Empty is the canonical snapshot widgets fall back to.
func Empty() Snapshot {
	return Snapshot{Tasks: []Task{}}
}

// Decode never fails. Any input that is not a valid snapshot, including
// nothing at all, yields the empty snapshot.
func Decode(data []byte) Snapshot {
	if len(data) == 0 {
		return Empty()
	}
	var s Snapshot
	if err := sonic.Unmarshal(data, &s); err != nil {
		return Empty()
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.TodayCount < 0 {
		s.TodayCount = 0
	}
	return s
}

// Encode serializes a snapshot for the widget slot.
func Encode(s Snapshot) ([]byte, error) {
	return sonic.Marshal(s)
}
