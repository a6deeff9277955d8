package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/roomchat/internal/common"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

func receive(t *testing.T, s *Subscription) Message {
	t.Helper()
	select {
	case m := <-s.C():
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func TestHub_BroadcastIncludesSender(t *testing.T) {
	ctx := context.Background()
	h := NewHub(NewStore([]string{"a", "b"}), logging.Discard())

	anna, err := h.Subscribe(1, "anna12")
	require.NoError(t, err)
	max, err := h.Subscribe(1, "max34")
	require.NoError(t, err)
	other, err := h.Subscribe(2, "max34")
	require.NoError(t, err)

	_, err = h.Publish(ctx, 1, "anna12", "hi")
	require.NoError(t, err)

	assert.Equal(t, "hi", receive(t, anna).Body)
	assert.Equal(t, "hi", receive(t, max).Body)
	select {
	case m := <-other.C():
		t.Fatalf("unexpected message in other room: %+v", m)
	default:
	}

	h.Unsubscribe(max)
	h.Unsubscribe(max)
	assert.Equal(t, 1, h.Subscribers(1))
	<-max.Done()
}

func TestHub_OrderMatchesHistory(t *testing.T) {
	ctx := context.Background()
	h := NewHub(NewStore([]string{"a"}), logging.Discard())
	s, err := h.Subscribe(1, "u")
	require.NoError(t, err)

	for _, body := range []string{"1", "2", "3"} {
		_, err := h.Publish(ctx, 1, "u", body)
		require.NoError(t, err)
	}

	hist, err := h.Store().History(1)
	require.NoError(t, err)
	for _, want := range hist {
		assert.Equal(t, want, receive(t, s))
	}
}

func TestHub_SubscribeUnknownRoom(t *testing.T) {
	h := NewHub(NewStore([]string{"a"}), logging.Discard())
	_, err := h.Subscribe(5, "u")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	ctx := context.Background()
	h := NewHub(NewStore([]string{"a"}), logging.Discard())
	h.buffer = 1

	s, err := h.Subscribe(1, "u")
	require.NoError(t, err)

	_, err = h.Publish(ctx, 1, "v", "one")
	require.NoError(t, err)
	_, err = h.Publish(ctx, 1, "v", "two")
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("slow subscriber not dropped")
	}
	assert.Equal(t, 0, h.Subscribers(1))
}

func TestHub_Close(t *testing.T) {
	h := NewHub(NewStore([]string{"a"}), logging.Discard())
	s, err := h.Subscribe(1, "u")
	require.NoError(t, err)

	h.Close()
	<-s.Done()

	_, err = h.Subscribe(1, "u")
	assert.ErrorIs(t, err, ErrHubClosed)
}
