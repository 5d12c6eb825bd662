package domain

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// User-facing strings of the reminder notifications. The app ships with a
// Korean UI, so the mail body labels and the missing-due-date placeholder
// stay in Korean.
const (
	labelPriority         = "우선순위"
	labelDueDate          = "마감일"
	defaultDuePlaceholder = "없음"
	emailHeadingSuffix    = " - 리마인더"
	emailFooterSuffix     = " 앱에서 설정한 리마인더입니다."
)

const dueLayout = "2006. 1. 2. 15:04"

// pushSeparator joins the non-empty segments of a push body.
const pushSeparator = " · "

// taskDeepLinkPrefix is the URI consumed by the app's router when a
// notification or widget row is tapped.
const taskDeepLinkPrefix = "app://task?id="

var emailBodyTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2 style="color: #1976D2;">{{.Heading}}</h2>
  <div style="background: #f5f5f5; padding: 16px; border-radius: 8px;">
    <h3 style="margin: 0 0 8px;">{{.Title}}</h3>
    {{if .Description}}<p style="color: #666; margin: 0 0 8px;">{{.Description}}</p>{{end}}
    <p style="margin: 4px 0; font-size: 14px;"><strong>{{.PriorityLabel}}:</strong> {{.Priority}}</p>
    <p style="margin: 4px 0; font-size: 14px;"><strong>{{.DueLabel}}:</strong> {{.Due}}</p>
  </div>
  <p style="color: #999; font-size: 12px; margin-top: 16px;">{{.Footer}}</p>
</div>`))

// Composer formats tasks into channel-specific notification content. It is
// pure: the same task always yields the same content.
type Composer struct {
	AppName string
	// Location renders due timestamps in the user-facing timezone.
	Location *time.Location
	// DuePlaceholder is the email due-date text for tasks without one.
	DuePlaceholder string
}

// NewComposer returns a Composer with the app defaults.
func NewComposer(loc *time.Location) Composer {
	if loc == nil {
		loc = time.UTC
	}
	return Composer{AppName: "Finito", Location: loc, DuePlaceholder: defaultDuePlaceholder}
}

// EmailContent is the composed subject and HTML body of a reminder email.
type EmailContent struct {
	Subject string
	HTML    string
}

// PushContent is the composed notification plus its data payload. Data
// carries the task identity for client-side deep linking.
type PushContent struct {
	Title string
	Body  string
	Data  map[string]string
}

// PriorityLabel maps the known priorities to their short display labels.
// Unknown priorities pass through verbatim.
func (c Composer) PriorityLabel(p Priority) string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MED"
	case PriorityLow:
		return "LOW"
	default:
		return string(p)
	}
}

// Email renders the reminder email for a task.
func (c Composer) Email(t Task) EmailContent {
	due := c.DuePlaceholder
	if t.DueDate != nil {
		due = c.dueText(*t.DueDate)
	}
	data := struct {
		Heading       string
		Title         string
		Description   string
		PriorityLabel string
		Priority      string
		DueLabel      string
		Due           string
		Footer        string
	}{
		Heading:       c.AppName + emailHeadingSuffix,
		Title:         t.Title,
		Description:   t.Description,
		PriorityLabel: labelPriority,
		Priority:      c.PriorityLabel(t.Priority),
		DueLabel:      labelDueDate,
		Due:           due,
		Footer:        "이 이메일은 " + c.AppName + emailFooterSuffix,
	}
	var b strings.Builder
	// The template only fails on unrenderable values; all fields here are
	// plain strings.
	_ = emailBodyTemplate.Execute(&b, data)
	return EmailContent{
		Subject: fmt.Sprintf("[%s] %s", c.AppName, t.Title),
		HTML:    b.String(),
	}
}

// Push renders the notification content for a task. The body joins the
// description, due date, and priority label, dropping absent segments; a
// task without a due date has no due segment at all.
func (c Composer) Push(t Task) PushContent {
	segments := make([]string, 0, 3)
	if t.Description != "" {
		segments = append(segments, t.Description)
	}
	if t.DueDate != nil {
		segments = append(segments, labelDueDate+": "+c.dueText(*t.DueDate))
	}
	if label := c.PriorityLabel(t.Priority); label != "" {
		segments = append(segments, label)
	}
	return PushContent{
		Title: t.Title,
		Body:  strings.Join(segments, pushSeparator),
		Data: map[string]string{
			"taskId": t.ID,
			"link":   taskDeepLinkPrefix + t.ID,
		},
	}
}

func (c Composer) dueText(due time.Time) string {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return due.In(loc).Format(dueLayout)
}
