package meeting

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ItemInput struct {
	Title       string `json:"title"`
	DurationSec int    `json:"durationSec"`
	Notes       string `json:"notes"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Category    string `json:"category"`
	OnBallot    bool   `json:"onBallot"`
}

// ItemPatch carries optional field updates; nil fields are left untouched.
type ItemPatch struct {
	Title       *string `json:"title"`
	DurationSec *int    `json:"durationSec"`
	Notes       *string `json:"notes"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
	Category    *string `json:"category"`
	OnBallot    *bool   `json:"onBallot"`
}

// AddItem appends a pending item. The first item added becomes the current
// item and, if the countdown is idle, sets its duration.
func (s *Session) AddItem(in ItemInput) (AgendaItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return AgendaItem{}, ErrMissingTitle
	}
	if in.DurationSec < 0 {
		return AgendaItem{}, ErrInvalidDuration
	}
	item := AgendaItem{
		ID:          uuid.NewString(),
		Title:       title,
		DurationSec: in.DurationSec,
		Notes:       in.Notes,
		Type:        in.Type,
		Description: in.Description,
		Link:        in.Link,
		Category:    in.Category,
		OnBallot:    in.OnBallot,
		Status:      ItemPending,
	}
	s.Agenda = append(s.Agenda, item)
	if s.CurrentAgendaItemID == "" {
		s.CurrentAgendaItemID = item.ID
		if s.timerIdle() {
			s.resetTimerTo(item.DurationSec)
		}
	}
	return item, nil
}

func (s *Session) UpdateItem(id string, patch ItemPatch) (AgendaItem, error) {
	item := s.item(id)
	if item == nil {
		return AgendaItem{}, ErrItemNotFound
	}
	var title string
	if patch.Title != nil {
		if title = strings.TrimSpace(*patch.Title); title == "" {
			return AgendaItem{}, ErrMissingTitle
		}
	}
	if patch.DurationSec != nil && *patch.DurationSec < 0 {
		return AgendaItem{}, ErrInvalidDuration
	}
	if patch.Title != nil {
		item.Title = title
	}
	if patch.DurationSec != nil {
		item.DurationSec = *patch.DurationSec
		if id == s.CurrentAgendaItemID && s.timerIdle() {
			s.resetTimerTo(item.DurationSec)
		}
	}
	setIf(&item.Notes, patch.Notes)
	setIf(&item.Type, patch.Type)
	setIf(&item.Description, patch.Description)
	setIf(&item.Link, patch.Link)
	setIf(&item.Category, patch.Category)
	setIf(&item.OnBallot, patch.OnBallot)
	return *item, nil
}

// DeleteItem removes a pending or completed item. When the current item is
// removed, the first remaining item becomes current and an idle countdown is
// reset to it; a running or paused countdown is left alone.
func (s *Session) DeleteItem(id string) error {
	idx := s.itemIndex(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	if s.Agenda[idx].Status == ItemActive {
		return ErrDeleteActiveItem
	}
	s.Agenda = append(s.Agenda[:idx], s.Agenda[idx+1:]...)
	if s.CurrentAgendaItemID != id {
		return nil
	}
	s.CurrentAgendaItemID = ""
	next := 0
	if len(s.Agenda) > 0 {
		s.CurrentAgendaItemID = s.Agenda[0].ID
		next = s.Agenda[0].DurationSec
	}
	if s.timerIdle() {
		s.resetTimerTo(next)
	}
	return nil
}

// ReorderItems requires ids to be a permutation of the current agenda.
func (s *Session) ReorderItems(ids []string) error {
	if len(ids) == 0 {
		return ErrMissingOrderedIDs
	}
	if len(ids) != len(s.Agenda) {
		return ErrInvalidOrder
	}
	byID := make(map[string]AgendaItem, len(s.Agenda))
	for _, item := range s.Agenda {
		byID[item.ID] = item
	}
	reordered := make([]AgendaItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byID, id)
		reordered = append(reordered, item)
	}
	s.Agenda = reordered
	return nil
}

// SetActiveItem makes id the active item and reports false if it does not
// exist. The previously active item is completed and its time accumulated.
// The countdown is reset to the new item only when it is not running.
func (s *Session) SetActiveItem(id string, now time.Time) bool {
	next := s.item(id)
	if next == nil {
		return false
	}
	at := msOf(now)
	if prev := s.ActiveItem(); prev != nil && prev.ID != id {
		completeItem(prev, at)
	}
	if next.Status != ItemActive {
		next.Status = ItemActive
		next.CompletedAt = nil
		next.ActivatedAt = int64Ptr(at)
		if next.StartedAt == nil {
			next.StartedAt = int64Ptr(at)
		}
	}
	s.CurrentAgendaItemID = id
	if !s.Timer.Running {
		s.resetTimerTo(next.DurationSec)
	}
	return true
}

// NextItem activates the item after the current one, or the first item when
// nothing is current.
func (s *Session) NextItem(now time.Time) error {
	idx := s.itemIndex(s.CurrentAgendaItemID)
	target := 0
	if idx >= 0 {
		target = idx + 1
		if s.Agenda[idx].Status == ItemPending {
			target = idx
		}
	}
	if target >= len(s.Agenda) {
		return ErrNoNextItem
	}
	s.SetActiveItem(s.Agenda[target].ID, now)
	return nil
}

func (s *Session) PrevItem(now time.Time) error {
	idx := s.itemIndex(s.CurrentAgendaItemID)
	if idx <= 0 {
		return ErrNoPreviousItem
	}
	s.SetActiveItem(s.Agenda[idx-1].ID, now)
	return nil
}

// ActiveItem returns the item with status active, if any.
func (s *Session) ActiveItem() *AgendaItem {
	for i := range s.Agenda {
		if s.Agenda[i].Status == ItemActive {
			return &s.Agenda[i]
		}
	}
	return nil
}

func (s *Session) item(id string) *AgendaItem {
	idx := s.itemIndex(id)
	if idx < 0 {
		return nil
	}
	return &s.Agenda[idx]
}

func (s *Session) itemIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Agenda {
		if s.Agenda[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) timerIdle() bool {
	return !s.Timer.Running && !s.Timer.Paused()
}

func completeItem(item *AgendaItem, at int64) {
	item.Status = ItemCompleted
	item.CompletedAt = int64Ptr(at)
	from := item.ActivatedAt
	if from == nil {
		from = item.StartedAt
	}
	if from != nil && at > *from {
		item.TimeSpent += (at - *from) / 1000
	}
	item.ActivatedAt = nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
