package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/ckr3453/finito/domain"
)

// Storage provides the task collection, user directory, and push token
// registry over Azure Table Storage. Tasks and tokens are partitioned by
// user id; users are keyed by their own id.
type Storage struct {
	userTable  *aztables.Client
	taskTable  *aztables.Client
	tokenTable *aztables.Client
}

// New creates a Storage from the given connection string and table names.
func New(connStr, usersTable, tasksTable, tokensTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		userTable:  svc.NewClient(usersTable),
		taskTable:  svc.NewClient(tasksTable),
		tokenTable: svc.NewClient(tokensTable),
	}, nil
}

type taskEntity struct {
	aztables.Entity
	Title             string `json:"Title"`
	Description       string `json:"Description,omitempty"`
	Priority          string `json:"Priority,omitempty"`
	Status            string `json:"Status,omitempty"`
	DueDate           *int64 `json:"DueDate,omitempty,string"`
	ReminderTime      *int64 `json:"ReminderTime,omitempty,string"`
	ReminderEmailSent bool   `json:"ReminderEmailSent"`
	ReminderPushSent  bool   `json:"ReminderPushSent"`
}

type userEntity struct {
	aztables.Entity
	Email string `json:"Email,omitempty"`
}

// ListUsers returns a pager over all user identities.
func (s *Storage) ListUsers(ctx context.Context) domain.UserIterator {
	sel := "PartitionKey"
	pager := s.userTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Select: &sel})
	return &userPager{pager: pager}
}

type userPager struct {
	pager *runtime.Pager[aztables.ListEntitiesResponse]
}

func (p *userPager) More() bool { return p.pager.More() }

func (p *userPager) NextPage(ctx context.Context) ([]string, error) {
	resp, err := p.pager.NextPage(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Entities))
	for _, raw := range resp.Entities {
		var ent aztables.Entity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return nil, err
		}
		ids = append(ids, ent.PartitionKey)
	}
	return ids, nil
}

// DueUnsentTasks returns the user's pending tasks whose reminder is due
// and whose sent flag for the channel is still false.
func (s *Storage) DueUnsentTasks(ctx context.Context, userID string, ch domain.Channel, now time.Time) ([]domain.Task, error) {
	filter := dueUnsentFilter(userID, ch, now)
	return s.queryTasks(ctx, filter)
}

// TasksForDay returns the user's tasks due on the given day, regardless of
// status. The widget snapshot is built from this set.
func (s *Storage) TasksForDay(ctx context.Context, userID string, day time.Time) ([]domain.Task, error) {
	filter := dayFilter(userID, day)
	return s.queryTasks(ctx, filter)
}

func (s *Storage) queryTasks(ctx context.Context, filter string) ([]domain.Task, error) {
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, fromTaskEntity(ent))
		}
	}
	return tasks, nil
}

// MarkSent merges the channel's sent flag into the task entity. The merge
// touches only the flag column, so repeating the call is a no-op.
func (s *Storage) MarkSent(ctx context.Context, userID, taskID string, ch domain.Channel) error {
	ent := map[string]any{
		"PartitionKey": userID,
		"RowKey":       taskID,
		sentColumn(ch): true,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return err
}

// Email returns the user's verified address.
func (s *Storage) Email(ctx context.Context, userID string) (string, error) {
	resp, err := s.userTable.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return "", err
	}
	return ent.Email, nil
}

// Tokens returns the user's push registration tokens.
func (s *Storage) Tokens(ctx context.Context, userID string) ([]string, error) {
	filter := partitionFilter(userID)
	pager := s.tokenTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tokens := []string{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent aztables.Entity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tokens = append(tokens, ent.RowKey)
		}
	}
	return tokens, nil
}

// RemoveToken deletes one registration record. A missing record is fine:
// the token is gone either way.
func (s *Storage) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := s.tokenTable.DeleteEntity(ctx, userID, token, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return nil
		}
	}
	return err
}

func fromTaskEntity(ent taskEntity) domain.Task {
	t := domain.Task{
		ID:          ent.RowKey,
		UserID:      ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Priority:    domain.Priority(ent.Priority),
		Status:      domain.Status(ent.Status),
		EmailSent:   ent.ReminderEmailSent,
		PushSent:    ent.ReminderPushSent,
	}
	if ent.DueDate != nil {
		v := time.UnixMilli(*ent.DueDate).UTC()
		t.DueDate = &v
	}
	if ent.ReminderTime != nil {
		v := time.UnixMilli(*ent.ReminderTime).UTC()
		t.ReminderTime = &v
	}
	return t
}
