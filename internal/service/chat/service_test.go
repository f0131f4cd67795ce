package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	model "github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
	chat "github.com/Balaji-Udayagiri/ChatLLM/internal/service/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

func fixedClock() func() time.Time {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newService(t *testing.T) (*chat.Service, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	return chat.NewService(store, chat.WithClock(fixedClock())), store
}

func userText(text string) model.Message {
	return model.Message{Role: model.RoleUser, Content: model.PlainText(text)}
}

func TestCreateConversationPrependsAndSelects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first := svc.CreateConversation(ctx)
	second := svc.CreateConversation(ctx)

	list := svc.List(ctx)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
	require.Equal(t, model.DefaultTitle, list[0].Title)

	current, ok := svc.Current(ctx)
	require.True(t, ok)
	require.Equal(t, second.ID, current.ID)
}

// cancelAwareStore fails writes made under a cancelled context.
type cancelAwareStore struct {
	*kv.MemoryStore
}

func (s cancelAwareStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func TestMutationsPersistAfterCallerCancels(t *testing.T) {
	store := cancelAwareStore{kv.NewMemoryStore()}
	svc := chat.NewService(store, chat.WithClock(fixedClock()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	kept := svc.CreateConversation(ctx)
	dropped := svc.CreateConversation(ctx)
	_, err := svc.RenameConversation(ctx, kept.ID, "Renamed")
	require.NoError(t, err)
	_, err = svc.DeleteConversation(ctx, dropped.ID)
	require.NoError(t, err)

	reloaded := chat.NewService(store)
	require.NoError(t, reloaded.Load(context.Background()))
	list := reloaded.List(context.Background())
	require.Len(t, list, 1)
	require.Equal(t, kept.ID, list[0].ID)
	require.Equal(t, "Renamed", list[0].Title)
}

func TestLoadConversationNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := svc.CreateConversation(ctx)

	_, err := svc.LoadConversation(ctx, "missing")
	require.ErrorIs(t, err, chat.ErrConversationNotFound)

	current, ok := svc.Current(ctx)
	require.True(t, ok)
	require.Equal(t, created.ID, current.ID)
}

func TestAppendMessageKeepsOrderAndDerivesTitleOnce(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	conv := svc.CreateConversation(ctx)

	_, err := svc.AppendMessage(ctx, conv.ID, userText(strings.Repeat("A", 40)))
	require.NoError(t, err)
	_, err = svc.AppendMessage(ctx, conv.ID, model.Message{Role: model.RoleAssistant, Content: model.PlainText("reply")})
	require.NoError(t, err)
	got, err := svc.AppendMessage(ctx, conv.ID, userText("second question"))
	require.NoError(t, err)

	require.Equal(t, strings.Repeat("A", 30)+"...", got.Title)
	require.Len(t, got.Messages, 3)
	require.Equal(t, strings.Repeat("A", 40), got.Messages[0].Content.DisplayText())
	require.Equal(t, "reply", got.Messages[1].Content.DisplayText())
	require.Equal(t, "second question", got.Messages[2].Content.DisplayText())
	require.Equal(t, got.Messages[2].Timestamp, got.LastMessageAt)
}

func TestAppendMessageImageOnlyTitle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	conv := svc.CreateConversation(ctx)

	got, err := svc.AppendMessage(ctx, conv.ID, model.Message{
		Role:    model.RoleUser,
		Content: model.Structured(model.ImagePart("data:image/png;base64,AAAA")),
	})
	require.NoError(t, err)
	require.Equal(t, "Image message", got.Title)
}

func TestAppendMessageRejectsEmptyAndMissing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	conv := svc.CreateConversation(ctx)

	_, err := svc.AppendMessage(ctx, conv.ID, userText(""))
	require.ErrorIs(t, err, chat.ErrEmptyContent)

	_, err = svc.AppendMessage(ctx, "missing", userText("hi"))
	require.ErrorIs(t, err, chat.ErrConversationNotFound)

	got, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Empty(t, got.Messages)
	require.Equal(t, model.DefaultTitle, got.Title)
}

func TestDeleteConversationKeepsCurrentValid(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	older := svc.CreateConversation(ctx)
	newer := svc.CreateConversation(ctx)

	// Deleting a non-current conversation leaves the selection alone.
	current, err := svc.DeleteConversation(ctx, older.ID)
	require.NoError(t, err)
	require.Equal(t, newer.ID, current.ID)

	// Deleting the last one creates a fresh conversation.
	current, err = svc.DeleteConversation(ctx, newer.ID)
	require.NoError(t, err)
	require.NotEqual(t, newer.ID, current.ID)
	require.Equal(t, model.DefaultTitle, current.Title)

	list := svc.List(ctx)
	require.Len(t, list, 1)
	require.Equal(t, current.ID, list[0].ID)

	_, err = svc.DeleteConversation(ctx, "missing")
	require.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestDeleteCurrentSelectsMostRecentRemaining(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a := svc.CreateConversation(ctx)
	b := svc.CreateConversation(ctx)
	c := svc.CreateConversation(ctx)
	_, err := svc.LoadConversation(ctx, b.ID)
	require.NoError(t, err)

	current, err := svc.DeleteConversation(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, current.ID)

	ids := []string{}
	for _, conv := range svc.List(ctx) {
		ids = append(ids, conv.ID)
	}
	require.Equal(t, []string{c.ID, a.ID}, ids)
}

func TestCurrentAlwaysExistsAcrossCreateDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ids := []string{}
	for i := 0; i < 5; i++ {
		ids = append(ids, svc.CreateConversation(ctx).ID)
	}
	for _, id := range []string{ids[4], ids[0], ids[2], ids[3], ids[1]} {
		_, err := svc.DeleteConversation(ctx, id)
		require.NoError(t, err)

		current, ok := svc.Current(ctx)
		require.True(t, ok)
		_, err = svc.Get(ctx, current.ID)
		require.NoError(t, err)
	}
}

func TestRenameConversation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	conv := svc.CreateConversation(ctx)

	got, err := svc.RenameConversation(ctx, conv.ID, "  Trip plans ")
	require.NoError(t, err)
	require.Equal(t, "Trip plans", got.Title)

	_, err = svc.RenameConversation(ctx, conv.ID, " ")
	require.ErrorIs(t, err, chat.ErrTitleRequired)
	_, err = svc.RenameConversation(ctx, "missing", "x")
	require.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestPersistedListRoundTrips(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first := svc.CreateConversation(ctx)
	_, err := svc.AppendMessages(ctx, first.ID,
		model.Message{Role: model.RoleUser, Content: model.Structured(
			model.TextPart("what is this?"),
			model.ImagePart("data:image/png;base64,AAAA"),
		)},
		model.Message{Role: model.RoleAssistant, Content: model.PlainText("a **cat**")},
	)
	require.NoError(t, err)
	second := svc.CreateConversation(ctx)
	_, err = svc.AppendMessage(ctx, second.ID, userText("Hello"))
	require.NoError(t, err)

	want := svc.List(ctx)

	reloaded := chat.NewService(store)
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, want, reloaded.List(ctx))

	_, ok := reloaded.Current(ctx)
	require.False(t, ok)
}

func TestLoadRejectsCorruptData(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, kv.KeyConversations, "{not json"))

	svc := chat.NewService(store)
	require.Error(t, svc.Load(ctx))
	require.Empty(t, svc.List(ctx))
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	store := kv.NewMemoryStore()
	svc := chat.NewService(store)
	ctx := context.Background()
	require.NoError(t, store.Close())

	conv := svc.CreateConversation(ctx)
	got, err := svc.AppendMessage(ctx, conv.ID, userText("still here"))
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
}
