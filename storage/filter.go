package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/ckr3453/finito/domain"
)

const (
	emailSentColumn = "ReminderEmailSent"
	pushSentColumn  = "ReminderPushSent"
)

func sentColumn(ch domain.Channel) string {
	if ch == domain.ChannelPush {
		return pushSentColumn
	}
	return emailSentColumn
}

// escapeKey doubles single quotes for use inside an OData string literal.
func escapeKey(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func partitionFilter(userID string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", escapeKey(userID))
}

// dueUnsentFilter selects pending tasks with a reminder at or before now
// whose sent flag for the channel is still false. Tasks without a reminder
// have no ReminderTime column and never match.
func dueUnsentFilter(userID string, ch domain.Channel, now time.Time) string {
	return fmt.Sprintf("%s and Status eq 'pending' and ReminderTime le %dL and %s eq false",
		partitionFilter(userID), now.UnixMilli(), sentColumn(ch))
}

// dayFilter selects tasks due within the calendar day containing the given
// time, in that time's location.
func dayFilter(userID string, day time.Time) string {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return fmt.Sprintf("%s and DueDate ge %dL and DueDate lt %dL",
		partitionFilter(userID), start.UnixMilli(), end.UnixMilli())
}
