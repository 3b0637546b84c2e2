// Package models holds the entities the LifeOS API stores and the client reads.
package models

import "time"

// DateLayout is the wire format for calendar dates (no time of day).
const DateLayout = "2006-01-02"

// Habit is a recurring practice. CompletedDates holds calendar dates in
// DateLayout; duplicates are tolerated and treated as one completion.
type Habit struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	StructureID    string    `json:"structure_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CompletedDates []string  `json:"completed_dates"`
	CreatedAt      time.Time `json:"created_at"`
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "Active"
	GoalCompleted GoalStatus = "Completed"
	GoalOnHold    GoalStatus = "OnHold"
)

// Goal carries a progress percentage computed upstream from its objectives.
type Goal struct {
	ID              string     `json:"id"`
	UserID          string     `json:"-"`
	StructureID     string     `json:"structure_id,omitempty"`
	Title           string     `json:"title"`
	Status          GoalStatus `json:"status"`
	ProgressPercent float64    `json:"progress_percent"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EventType distinguishes plain events from task-derived ones.
type EventType string

const (
	EventPlain EventType = "event"
	EventTask  EventType = "task"
)

// Event is a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	StructureID string    `json:"structure_id,omitempty"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	AllDay      bool      `json:"all_day"`
	Type        EventType `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Note is a free-form text entry.
type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	StructureID string    `json:"structure_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
