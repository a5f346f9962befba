package directory_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nadirk/chatwire/pkg/directory"
)

func newTestStore(t *testing.T) *directory.Store {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	store, err := directory.Open(slog.New(handler), "", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUserRoundTrip(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	profile := directory.Profile{UserID: "user-1", DisplayName: "Alice", AvatarURL: "https://cdn/a.png"}
	req.NoError(store.SaveUser(profile))

	got, found, err := store.User("user-1")
	req.NoError(err)
	req.True(found)
	req.Equal(profile, *got)
}

func TestUnknownUserIsNotAnError(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	got, found, err := store.User("nobody")
	req.NoError(err)
	req.False(found)
	req.Nil(got)
}

func TestSaveUserRequiresID(t *testing.T) {
	store := newTestStore(t)
	require.Error(t, store.SaveUser(directory.Profile{DisplayName: "Ghost"}))
}

func TestParticipantsRoundTrip(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	req.NoError(store.SaveConversation("conv-1", []string{"alice", "bob"}))

	ids, err := store.Participants("conv-1")
	req.NoError(err)
	req.ElementsMatch([]string{"alice", "bob"}, ids)
}

func TestUnknownConversationHasNoParticipants(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	ids, err := store.Participants("conv-404")
	req.NoError(err)
	req.Empty(ids)
}

func TestSaveConversationOverwrites(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	req.NoError(store.SaveConversation("conv-1", []string{"alice", "bob"}))
	req.NoError(store.SaveConversation("conv-1", []string{"alice", "bob", "carol"}))

	ids, err := store.Participants("conv-1")
	req.NoError(err)
	req.Len(ids, 3)
}
