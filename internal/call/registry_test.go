package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/voice"
)

func TestRegistry_StartTracksAndExpires(t *testing.T) {
	opener := &fakeOpener{}
	r := NewRegistry(opener, &fakeGenerator{}, testSettings, 20*time.Millisecond, nil)

	owner := uuid.New()
	entry, err := r.Start(context.Background(), Params{Mode: ModeGenerate, UserID: owner})
	require.NoError(t, err)
	assert.Equal(t, owner, entry.OwnerID)
	assert.Equal(t, "https://join.example/sess-1", entry.JoinURL)

	got, ok := r.Get(entry.ID)
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, StatusConnecting, entry.Hub.Latest().Status)

	fs, _ := opener.last()
	send(fs, voice.Event{Kind: voice.EventCallStart})
	fs.end()

	require.Eventually(t, func() bool { return r.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, HomePath, entry.Hub.Latest().Redirect)
}

func TestRegistry_StartFailureIsNotTracked(t *testing.T) {
	r := NewRegistry(&fakeOpener{err: errors.New("down")}, nil, testSettings, 0, nil)

	_, err := r.Start(context.Background(), Params{Mode: ModeGenerate, UserID: uuid.New()})
	require.Error(t, err)
	assert.Zero(t, r.Len())
}
