package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodylabs/platform/internal/model"
)

func seedThread(t *testing.T, m *Memory, participants []string, group bool) *model.Thread {
	t.Helper()

	info := make(map[string]model.ParticipantInfo, len(participants))
	for _, p := range participants {
		info[p] = model.ParticipantInfo{Name: "user " + p}
	}

	thread, err := m.InsertThread(context.Background(), &model.Thread{
		ParticipantIDs:  participants,
		ParticipantInfo: info,
		IsGroup:         group,
	})
	require.NoError(t, err)
	return thread
}

func TestInsertThreadAssignsIDAndTimestamps(t *testing.T) {
	m := NewMemory()

	thread := seedThread(t, m, []string{"alice", "bob"}, false)

	assert.NotEmpty(t, thread.ID)
	assert.False(t, thread.CreatedAt.IsZero())
	assert.Equal(t, thread.CreatedAt, thread.LastMessageAt)

	got, err := m.GetThread(context.Background(), thread.ID)
	require.NoError(t, err)
	assert.Equal(t, thread.ID, got.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got.ParticipantIDs)
}

func TestGetThreadNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.GetThread(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	thread := seedThread(t, m, []string{"alice"}, false)

	var prev *model.Message
	for i := 0; i < 50; i++ {
		msg, err := m.InsertMessage(ctx, &model.Message{
			ThreadID: thread.ID,
			SenderID: "alice",
			Text:     "hi",
		})
		require.NoError(t, err)
		if prev != nil {
			assert.True(t, msg.CreatedAt.After(prev.CreatedAt),
				"timestamps must strictly increase even for back-to-back writes")
		}
		prev = msg
	}

	msgs, err := m.MessagesByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}

func TestInsertMessageUnknownThread(t *testing.T) {
	m := NewMemory()

	_, err := m.InsertMessage(context.Background(), &model.Message{
		ThreadID: "missing",
		SenderID: "alice",
		Text:     "hi",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThreadsByParticipantOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := seedThread(t, m, []string{"alice", "bob"}, false)
	second := seedThread(t, m, []string{"alice", "carol"}, false)
	seedThread(t, m, []string{"dave"}, false)

	// Touch the older thread so it becomes the most recent.
	msg, err := m.InsertMessage(ctx, &model.Message{ThreadID: first.ID, SenderID: "alice", Text: "ping"})
	require.NoError(t, err)
	require.NoError(t, m.SetLastMessage(ctx, first.ID, msg.Text, msg.CreatedAt))

	threads, err := m.ThreadsByParticipant(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, first.ID, threads[0].ID)
	assert.Equal(t, second.ID, threads[1].ID)
}

func TestFindClientThreadIgnoresGroups(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	seedThread(t, m, []string{"alice", "staff"}, true)

	got, err := m.FindClientThread(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got, "a group thread is not a client thread")

	direct := seedThread(t, m, []string{"alice", "staff"}, false)
	got, err = m.FindClientThread(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, direct.ID, got.ID)
}

func TestSetLastMessageNotFound(t *testing.T) {
	m := NewMemory()

	err := m.SetLastMessage(context.Background(), "missing", "hi", m.now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountsByRole(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.PutAccount(&model.Account{ID: "a1", Name: "Zoe", Role: model.RoleAdmin})
	m.PutAccount(&model.Account{ID: "a2", Name: "Amir", Role: model.RoleAdmin})
	m.PutAccount(&model.Account{ID: "c1", Name: "Cleo", Role: model.RoleClient})

	staff, err := m.ListAccountsByRole(ctx, model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Amir", staff[0].Name)
	assert.Equal(t, "Zoe", staff[1].Name)

	got, err := m.GetAccount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, got.Role)
}

func TestProjectRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.InsertRequest(ctx, &model.ProjectRequest{
		UserID:      "c1",
		Title:       "New storefront",
		Description: "A storefront for handmade goods with checkout",
		Features:    "catalog, cart, payments",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.False(t, created.SubmittedAt.IsZero())

	require.NoError(t, m.SetRequestStatus(ctx, created.ID, model.StatusApproved))

	got, err := m.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)

	own, err := m.ListRequests(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	other, err := m.ListRequests(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)
}
