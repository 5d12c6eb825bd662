package storage

import (
	"strconv"
	"testing"
	"time"

	"github.com/ckr3453/finito/domain"
)

func TestDueUnsentFilterPerChannel(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	got := dueUnsentFilter("u1", domain.ChannelEmail, now)
	want := "PartitionKey eq 'u1' and Status eq 'pending' and ReminderTime le 1700000000000L and ReminderEmailSent eq false"
	if got != want {
		t.Fatalf("email filter = %q, want %q", got, want)
	}
	got = dueUnsentFilter("u1", domain.ChannelPush, now)
	want = "PartitionKey eq 'u1' and Status eq 'pending' and ReminderTime le 1700000000000L and ReminderPushSent eq false"
	if got != want {
		t.Fatalf("push filter = %q, want %q", got, want)
	}
}

func TestFiltersEscapeQuotes(t *testing.T) {
	got := partitionFilter("o'brien")
	if got != "PartitionKey eq 'o''brien'" {
		t.Fatalf("unexpected filter: %q", got)
	}
}

func TestDayFilterCoversTheCalendarDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Date(2025, 6, 1, 14, 0, 0, 0, seoul)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, seoul).UnixMilli()
	end := time.Date(2025, 6, 2, 0, 0, 0, 0, seoul).UnixMilli()
	got := dayFilter("u1", day)
	want := "PartitionKey eq 'u1' and DueDate ge " + strconv.FormatInt(start, 10) + "L and DueDate lt " + strconv.FormatInt(end, 10) + "L"
	if got != want {
		t.Fatalf("day filter = %q, want %q", got, want)
	}
}
