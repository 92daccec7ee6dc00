package meeting

import (
	"strconv"
	"strings"
	"time"
)

// OpenVote replaces any previous live vote entirely. Options are trimmed,
// blanks dropped, and at least two distinct labels are required. Option ids
// are positional ("1", "2", ...). An empty linkedAgendaID links the vote to
// the current agenda item.
func (s *Session) OpenVote(question string, options []string, linkedAgendaID string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrMissingQuestion
	}
	seen := make(map[string]struct{}, len(options))
	opts := make([]VoteOption, 0, len(options))
	for _, label := range options {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		opts = append(opts, VoteOption{ID: strconv.Itoa(len(opts) + 1), Label: label})
	}
	if len(opts) < 2 {
		return ErrMissingOptions
	}
	if linkedAgendaID == "" {
		linkedAgendaID = s.CurrentAgendaItemID
	}
	s.Vote.Open = true
	s.Vote.Question = question
	s.Vote.Options = opts
	s.Vote.VotesByUserID = map[string]string{}
	s.Vote.LinkedAgendaID = linkedAgendaID
	return nil
}

// CastVote records voterID's choice. The selector matches an option id first,
// then a label (case-insensitive). Recasting overwrites the previous choice.
func (s *Session) CastVote(voterID, selector string) error {
	if voterID == "" {
		return ErrMissingUserID
	}
	if !s.Vote.Open {
		return ErrVoteNotOpen
	}
	if strings.TrimSpace(selector) == "" {
		return ErrMissingOption
	}
	opt, ok := s.Vote.option(selector)
	if !ok {
		return ErrInvalidOption
	}
	if s.Vote.VotesByUserID == nil {
		s.Vote.VotesByUserID = map[string]string{}
	}
	s.Vote.VotesByUserID[voterID] = opt.ID
	return nil
}

// CloseVote appends the tallied result to history and clears the live vote.
// It reports false and changes nothing when no vote is open.
func (s *Session) CloseVote(now time.Time) (VoteResult, bool) {
	if !s.Vote.Open {
		return VoteResult{}, false
	}
	tally, total := s.Vote.Counts()
	result := VoteResult{
		Question:       s.Vote.Question,
		Options:        append([]VoteOption{}, s.Vote.Options...),
		Tally:          tally,
		TotalVotes:     total,
		Ts:             msOf(now),
		LinkedAgendaID: s.Vote.LinkedAgendaID,
	}
	s.Vote.ClosedResults = append(s.Vote.ClosedResults, result)
	s.Vote.Open = false
	s.Vote.Question = ""
	s.Vote.Options = []VoteOption{}
	s.Vote.VotesByUserID = map[string]string{}
	s.Vote.LinkedAgendaID = ""
	return result, true
}

// Counts tallies votes per option in option order.
func (v Vote) Counts() ([]TallyEntry, int) {
	counts := make(map[string]int, len(v.Options))
	total := 0
	for _, optionID := range v.VotesByUserID {
		counts[optionID]++
		total++
	}
	tally := make([]TallyEntry, 0, len(v.Options))
	for _, opt := range v.Options {
		tally = append(tally, TallyEntry{OptionID: opt.ID, Label: opt.Label, Count: counts[opt.ID]})
	}
	return tally, total
}

func (v Vote) option(selector string) (VoteOption, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return VoteOption{}, false
	}
	for _, opt := range v.Options {
		if opt.ID == selector {
			return opt, true
		}
	}
	for _, opt := range v.Options {
		if strings.EqualFold(opt.Label, selector) {
			return opt, true
		}
	}
	return VoteOption{}, false
}

// Winners returns every option sharing the highest count, in option order.
// A tie therefore yields several winners; a vote with no ballots yields none.
func Winners(r VoteResult) []TallyEntry {
	best := 0
	for _, t := range r.Tally {
		best = max(best, t.Count)
	}
	if best == 0 {
		return nil
	}
	var winners []TallyEntry
	for _, t := range r.Tally {
		if t.Count == best {
			winners = append(winners, t)
		}
	}
	return winners
}
