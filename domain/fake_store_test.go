package domain

import (
	"context"
	"time"
)

type fakeIterator struct {
	pages [][]string
	errAt int
	err   error
	idx   int
}

func (it *fakeIterator) More() bool { return it.idx < len(it.pages) }

func (it *fakeIterator) NextPage(ctx context.Context) ([]string, error) {
	page := it.pages[it.idx]
	if it.err != nil && it.idx == it.errAt {
		return nil, it.err
	}
	it.idx++
	return page, nil
}

type fakeStore struct {
	users    [][]string
	tasks    map[string][]Task
	queryErr map[string]error
	markErr  error
	marked   []string
}

func (f *fakeStore) ListUsers(ctx context.Context) UserIterator {
	return &fakeIterator{pages: f.users}
}

func (f *fakeStore) DueUnsentTasks(ctx context.Context, userID string, ch Channel, now time.Time) ([]Task, error) {
	if err := f.queryErr[userID]; err != nil {
		return nil, err
	}
	due := []Task{}
	for _, t := range f.tasks[userID] {
		if t.Status != StatusPending || t.ReminderTime == nil || t.ReminderTime.After(now) || t.Sent(ch) {
			continue
		}
		due = append(due, t)
	}
	return due, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, userID, taskID string, ch Channel) error {
	if f.markErr != nil {
		return f.markErr
	}
	list := f.tasks[userID]
	for i := range list {
		if list[i].ID != taskID {
			continue
		}
		if ch == ChannelPush {
			list[i].PushSent = true
		} else {
			list[i].EmailSent = true
		}
	}
	f.marked = append(f.marked, userID+"/"+taskID+"/"+string(ch))
	return nil
}

func (f *fakeStore) task(userID, taskID string) Task {
	for _, t := range f.tasks[userID] {
		if t.ID == taskID {
			return t
		}
	}
	return Task{}
}

type fakeDirectory struct {
	emails    map[string]string
	emailErr  map[string]error
	tokens    map[string][]string
	tokenErr  map[string]error
	removed   []string
	removeErr error
}

func (f *fakeDirectory) Email(ctx context.Context, userID string) (string, error) {
	if err := f.emailErr[userID]; err != nil {
		return "", err
	}
	addr, ok := f.emails[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return addr, nil
}

func (f *fakeDirectory) Tokens(ctx context.Context, userID string) ([]string, error) {
	if err := f.tokenErr[userID]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.tokens[userID]...), nil
}

func (f *fakeDirectory) RemoveToken(ctx context.Context, userID, token string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, userID+"/"+token)
	live := f.tokens[userID][:0]
	for _, tok := range f.tokens[userID] {
		if tok != token {
			live = append(live, tok)
		}
	}
	f.tokens[userID] = live
	return nil
}

type fakeEmailSender struct {
	sent    []EmailMessage
	failFor map[string]error
}

func (f *fakeEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := f.failFor[msg.Subject]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePushSender struct {
	sent    []PushMessage
	results []PushResult
	err     error
}

func (f *fakePushSender) Send(ctx context.Context, msg PushMessage) ([]PushResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	if f.results != nil {
		return f.results, nil
	}
	results := make([]PushResult, 0, len(msg.Tokens))
	for _, tok := range msg.Tokens {
		results = append(results, PushResult{Token: tok})
	}
	return results, nil
}

type fakeRefresher struct {
	refreshed []string
}

func (f *fakeRefresher) Refresh(ctx context.Context, userID string) {
	f.refreshed = append(f.refreshed, userID)
}
