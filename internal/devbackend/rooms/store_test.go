package rooms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/roomchat/internal/common"
)

func TestStore_ListAndGet(t *testing.T) {
	s := NewStore([]string{"Allgemein", "Gaming"})

	assert.Equal(t, []Room{{ID: 1, Name: "Allgemein"}, {ID: 2, Name: "Gaming"}}, s.List())

	r, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Gaming", r.Name)

	_, err = s.Get(3)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_PostAndHistory(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore([]string{"a"}, WithClock(func() time.Time { return at }))

	m, err := s.Post(1, "anna12", "hi")
	require.NoError(t, err)
	assert.Equal(t, at, m.SentAt)
	assert.NotEmpty(t, m.ID)

	_, err = s.Post(1, "max34", "yo")
	require.NoError(t, err)

	h, err := s.History(1)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "hi", h[0].Body)
	assert.Equal(t, "max34", h[1].Username)

	_, err = s.Post(1, "anna12", "   ")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Post(9, "anna12", "hi")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.History(9)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_EmptyHistoryIsEmpty(t *testing.T) {
	s := NewStore([]string{"a"})
	h, err := s.History(1)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestStore_HistoryLimit(t *testing.T) {
	s := NewStore([]string{"a"}, WithHistoryLimit(2))

	for _, body := range []string{"1", "2", "3"} {
		_, err := s.Post(1, "u", body)
		require.NoError(t, err)
	}

	h, err := s.History(1)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "2", h[0].Body)
	assert.Equal(t, "3", h[1].Body)
}
