package storage

import (
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/ckr3453/finito/domain"
)

func TestFromTaskEntity(t *testing.T) {
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).UnixMilli()
	reminder := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC).UnixMilli()
	ent := taskEntity{
		Entity:            aztables.Entity{PartitionKey: "u1", RowKey: "t1"},
		Title:             "Buy milk",
		Description:       "2 liters",
		Priority:          "high",
		Status:            "pending",
		DueDate:           &due,
		ReminderTime:      &reminder,
		ReminderEmailSent: true,
	}

	task := fromTaskEntity(ent)

	if task.ID != "t1" || task.UserID != "u1" {
		t.Fatalf("unexpected keys: %+v", task)
	}
	if task.Priority != domain.PriorityHigh || task.Status != domain.StatusPending {
		t.Fatalf("unexpected enums: %+v", task)
	}
	if task.DueDate == nil || task.DueDate.UnixMilli() != due {
		t.Fatalf("due date lost: %+v", task.DueDate)
	}
	if task.ReminderTime == nil || task.ReminderTime.UnixMilli() != reminder {
		t.Fatalf("reminder time lost: %+v", task.ReminderTime)
	}
	if !task.EmailSent || task.PushSent {
		t.Fatalf("flags mismapped: %+v", task)
	}
}

func TestFromTaskEntityWithoutTimestamps(t *testing.T) {
	ent := taskEntity{
		Entity: aztables.Entity{PartitionKey: "u1", RowKey: "t1"},
		Title:  "no dates",
		Status: "pending",
	}
	task := fromTaskEntity(ent)
	if task.DueDate != nil || task.ReminderTime != nil {
		t.Fatalf("absent columns must stay nil: %+v", task)
	}
}
