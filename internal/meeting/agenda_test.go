package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func addItems(t *testing.T, s *Session, durations ...int) []AgendaItem {
	t.Helper()
	items := make([]AgendaItem, 0, len(durations))
	for i, d := range durations {
		item, err := s.AddItem(ItemInput{Title: string(rune('A' + i)), DurationSec: d})
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestAddItem_Validation(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddItem(ItemInput{Title: "  "})
	require.ErrorIs(t, err, ErrMissingTitle)
	_, err = s.AddItem(ItemInput{Title: "A", DurationSec: -1})
	require.ErrorIs(t, err, ErrInvalidDuration)
	require.Empty(t, s.Agenda)
}

func TestAddItem_FirstItemBecomesCurrent(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120)

	require.Equal(t, items[0].ID, s.CurrentAgendaItemID)
	require.Equal(t, 60, s.Timer.DurationSec)
	require.Equal(t, ItemPending, s.Agenda[0].Status)
	require.Nil(t, s.ActiveItem())
}

func TestSetActiveItem_UnknownIDFailsSilently(t *testing.T) {
	s := newTestSession(t)
	addItems(t, s, 60)
	before := s.Clone()

	require.False(t, s.SetActiveItem("missing", epoch))
	require.Equal(t, before, s)
}

func TestSetActiveItem_CompletesPreviousAndAccumulatesTime(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120)

	require.True(t, s.SetActiveItem(items[0].ID, epoch))
	require.True(t, s.SetActiveItem(items[1].ID, epoch.Add(75*time.Second)))

	first := s.Agenda[0]
	require.Equal(t, ItemCompleted, first.Status)
	require.Equal(t, epoch.Add(75*time.Second).UnixMilli(), *first.CompletedAt)
	require.Equal(t, int64(75), first.TimeSpent)

	second := s.Agenda[1]
	require.Equal(t, ItemActive, second.Status)
	require.Equal(t, second.ID, s.CurrentAgendaItemID)
	require.Equal(t, 120, s.Timer.DurationSec)

	require.True(t, s.SetActiveItem(items[0].ID, epoch.Add(100*time.Second)))
	require.True(t, s.SetActiveItem(items[1].ID, epoch.Add(110*time.Second)))
	require.Equal(t, int64(85), s.Agenda[0].TimeSpent)
	require.Equal(t, epoch.UnixMilli(), *s.Agenda[0].StartedAt)
}

func TestSetActiveItem_KeepsRunningTimer(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120)
	require.True(t, s.SetActiveItem(items[0].ID, epoch))
	require.NoError(t, s.TimerStart(epoch))
	endsAt := *s.Timer.EndsAtMs

	require.True(t, s.SetActiveItem(items[1].ID, epoch.Add(10*time.Second)))
	require.True(t, s.Timer.Running)
	require.Equal(t, endsAt, *s.Timer.EndsAtMs)
}

func TestSetActiveItem_ResetsPausedTimer(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120)
	require.True(t, s.SetActiveItem(items[0].ID, epoch))
	require.NoError(t, s.TimerStart(epoch))
	require.NoError(t, s.TimerPause(epoch.Add(time.Second)))

	require.True(t, s.SetActiveItem(items[1].ID, epoch.Add(2*time.Second)))
	require.Equal(t, Timer{DurationSec: 120, BaseDurationSec: 120}, s.Timer)
}

func TestAtMostOneActiveItem(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 10, 20, 30)
	for i, item := range append(items, items...) {
		require.True(t, s.SetActiveItem(item.ID, epoch.Add(time.Duration(i)*time.Second)))
		active := 0
		for _, a := range s.Agenda {
			if a.Status == ItemActive {
				active++
				require.Equal(t, a.ID, s.CurrentAgendaItemID)
			}
		}
		require.Equal(t, 1, active)
	}
}

func TestDeleteItem_RejectsActive(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120)
	require.True(t, s.SetActiveItem(items[0].ID, epoch))

	require.ErrorIs(t, s.DeleteItem(items[0].ID), ErrDeleteActiveItem)
	require.Len(t, s.Agenda, 2)
}

func TestDeleteItem_CurrentFallsBackToFirstRemaining(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60, 120, 30)
	require.True(t, s.SetActiveItem(items[0].ID, epoch))
	require.True(t, s.SetActiveItem(items[1].ID, epoch.Add(time.Second)))

	require.NoError(t, s.DeleteItem(items[0].ID))
	require.Equal(t, items[1].ID, s.CurrentAgendaItemID)

	s2 := newTestSession(t)
	items2 := addItems(t, s2, 60, 120)
	require.Equal(t, items2[0].ID, s2.CurrentAgendaItemID)
	require.NoError(t, s2.DeleteItem(items2[0].ID))
	require.Equal(t, items2[1].ID, s2.CurrentAgendaItemID)
	require.Equal(t, 120, s2.Timer.DurationSec)

	require.NoError(t, s2.DeleteItem(items2[1].ID))
	require.Empty(t, s2.CurrentAgendaItemID)
	require.Equal(t, 0, s2.Timer.DurationSec)
}

func TestDeleteItem_NotFound(t *testing.T) {
	s := newTestSession(t)
	require.ErrorIs(t, s.DeleteItem("nope"), ErrItemNotFound)
}

func TestUpdateItem(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 60)
	title := "Budget"
	duration := 90
	notes := "bring numbers"

	updated, err := s.UpdateItem(items[0].ID, ItemPatch{Title: &title, DurationSec: &duration, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, "Budget", updated.Title)
	require.Equal(t, "bring numbers", s.Agenda[0].Notes)
	require.Equal(t, 90, s.Timer.DurationSec)

	empty := " "
	_, err = s.UpdateItem(items[0].ID, ItemPatch{Title: &empty})
	require.ErrorIs(t, err, ErrMissingTitle)
	_, err = s.UpdateItem("missing", ItemPatch{})
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestReorderItems(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 1, 2, 3)

	require.NoError(t, s.ReorderItems([]string{items[2].ID, items[0].ID, items[1].ID}))
	require.Equal(t, items[2].ID, s.Agenda[0].ID)
	require.Equal(t, items[1].ID, s.Agenda[2].ID)

	require.ErrorIs(t, s.ReorderItems(nil), ErrMissingOrderedIDs)
	require.ErrorIs(t, s.ReorderItems([]string{items[0].ID, items[0].ID, items[1].ID}), ErrInvalidOrder)
	require.ErrorIs(t, s.ReorderItems([]string{items[0].ID}), ErrInvalidOrder)
}

func TestNextPrevItem(t *testing.T) {
	s := newTestSession(t)
	items := addItems(t, s, 1, 2)

	require.NoError(t, s.NextItem(epoch))
	require.Equal(t, items[0].ID, s.ActiveItem().ID)
	require.ErrorIs(t, s.PrevItem(epoch), ErrNoPreviousItem)

	require.NoError(t, s.NextItem(epoch))
	require.Equal(t, items[1].ID, s.ActiveItem().ID)
	require.ErrorIs(t, s.NextItem(epoch), ErrNoNextItem)

	require.NoError(t, s.PrevItem(epoch))
	require.Equal(t, items[0].ID, s.ActiveItem().ID)
	require.Equal(t, ItemCompleted, s.Agenda[1].Status)
}
