package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/webhook"
)

const minutesTimeLayout = "2006-01-02 15:04:05"

type attendee struct {
	ParticipantID string
	meeting.Attendee
}

// RenderMinutes renders an ended (or in-progress) session as a plain text
// report. Vote results list every option sharing the top count, so a tie
// names all tied options.
func RenderMinutes(snap meeting.Snapshot, loc *time.Location, timezone string) string {
	loc = safeLocation(loc)
	startedAt, endedAt := sessionPeriod(snap)
	attendees := canonicalAttendees(snap.Attendance)
	names := make([]string, 0, len(attendees))
	for _, a := range attendees {
		names = append(names, a.DisplayName)
	}

	lines := []string{
		minutesTitle,
		fmt.Sprintf(minutesSessionFormat, snap.ID),
		fmt.Sprintf(minutesPeriodFormat, startedAt.In(loc).Format(minutesTimeLayout), endedAt.In(loc).Format(minutesTimeLayout), timezone),
		fmt.Sprintf(minutesDurationFormat, formatElapsedHMS(time.Duration(snap.MeetingTimer.Elapsed)*time.Second)),
		fmt.Sprintf(minutesAttendeesFormat, len(names), strings.Join(names, ", ")),
		"",
		minutesAgendaHeading,
	}
	if len(snap.Agenda) == 0 {
		lines = append(lines, minutesNoAgenda)
	}
	for i, item := range snap.Agenda {
		lines = append(lines, fmt.Sprintf(minutesItemLineFormat,
			i+1,
			item.Title,
			item.Status,
			formatElapsedHMS(time.Duration(item.DurationSec)*time.Second),
			formatElapsedHMS(time.Duration(item.TimeSpent)*time.Second),
		))
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			lines = append(lines, minutesNotesPrefix+notes)
		}
	}

	lines = append(lines, "", minutesVotesHeading)
	if len(snap.Vote.ClosedResults) == 0 {
		lines = append(lines, minutesNoVotes)
	}
	for _, r := range snap.Vote.ClosedResults {
		lines = append(lines, fmt.Sprintf(minutesVoteLineFormat, r.Question, r.TotalVotes))
		if title := agendaTitle(snap.Agenda, r.LinkedAgendaID); title != "" {
			lines = append(lines, fmt.Sprintf(minutesLinkedItemFormat, title))
		}
		for _, t := range r.Tally {
			lines = append(lines, fmt.Sprintf(minutesTallyLineFormat, t.Label, t.Count))
		}
		lines = append(lines, resultLine(r))
	}
	return strings.Join(lines, "\n")
}

func resultLine(r meeting.VoteResult) string {
	winners := winnerLabels(r)
	switch len(winners) {
	case 0:
		return fmt.Sprintf(minutesWinnerFormat, minutesNoBallots)
	case 1:
		return fmt.Sprintf(minutesWinnerFormat, winners[0])
	default:
		return fmt.Sprintf(minutesTieFormat, strings.Join(winners, ", "))
	}
}

func winnerLabels(r meeting.VoteResult) []string {
	winners := meeting.Winners(r)
	labels := make([]string, 0, len(winners))
	for _, w := range winners {
		labels = append(labels, w.Label)
	}
	return labels
}

func buildMinutesWebhookPayload(snap meeting.Snapshot, loc *time.Location, timezone, text string) webhook.MinutesWebhookPayload {
	loc = safeLocation(loc)
	startedAt, endedAt := sessionPeriod(snap)

	attendees := canonicalAttendees(snap.Attendance)
	wa := make([]webhook.MinutesWebhookAttendee, 0, len(attendees))
	for _, a := range attendees {
		entry := webhook.MinutesWebhookAttendee{
			ParticipantID: a.ParticipantID,
			DisplayName:   a.DisplayName,
			JoinedAt:      time.UnixMilli(a.JoinedAt).In(loc).Format(time.RFC3339),
		}
		if a.LeftAt != nil {
			entry.LeftAt = time.UnixMilli(*a.LeftAt).In(loc).Format(time.RFC3339)
		}
		wa = append(wa, entry)
	}

	agenda := make([]webhook.MinutesWebhookAgendaItem, 0, len(snap.Agenda))
	for _, item := range snap.Agenda {
		agenda = append(agenda, webhook.MinutesWebhookAgendaItem{
			ID:               item.ID,
			Title:            item.Title,
			Status:           string(item.Status),
			PlannedSeconds:   item.DurationSec,
			TimeSpentSeconds: item.TimeSpent,
			Notes:            item.Notes,
		})
	}

	votes := make([]webhook.MinutesWebhookVote, 0, len(snap.Vote.ClosedResults))
	for _, r := range snap.Vote.ClosedResults {
		tally := make(map[string]int, len(r.Tally))
		for _, t := range r.Tally {
			tally[t.Label] = t.Count
		}
		votes = append(votes, webhook.MinutesWebhookVote{
			Question:       r.Question,
			Tally:          tally,
			TotalVotes:     r.TotalVotes,
			Winners:        winnerLabels(r),
			LinkedAgendaID: r.LinkedAgendaID,
			ClosedAt:       time.UnixMilli(r.Ts).In(loc).Format(time.RFC3339),
		})
	}

	durationSeconds := int64(endedAt.Sub(startedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	return webhook.MinutesWebhookPayload{
		SchemaVersion:   webhook.MinutesWebhookSchemaVersion,
		SessionID:       snap.ID,
		StartAt:         startedAt.In(loc).Format(time.RFC3339),
		EndAt:           endedAt.In(loc).Format(time.RFC3339),
		Timezone:        timezone,
		DurationSeconds: durationSeconds,
		Attendees:       wa,
		Agenda:          agenda,
		Votes:           votes,
		Minutes:         text,
	}
}

func sessionPeriod(snap meeting.Snapshot) (time.Time, time.Time) {
	startedAt := time.UnixMilli(snap.CreatedAt)
	endedAt := time.UnixMilli(snap.UpdatedAt)
	if snap.EndedAt != nil {
		endedAt = time.UnixMilli(*snap.EndedAt)
	}
	return startedAt, endedAt
}

func agendaTitle(agenda []meeting.AgendaItem, id string) string {
	if id == "" {
		return ""
	}
	for _, item := range agenda {
		if item.ID == id {
			return item.Title
		}
	}
	return ""
}

func canonicalAttendees(attendance map[string]meeting.Attendee) []attendee {
	list := make([]attendee, 0, len(attendance))
	for id, a := range attendance {
		if strings.TrimSpace(id) == "" {
			continue
		}
		if a.DisplayName == "" {
			a.DisplayName = id
		}
		list = append(list, attendee{ParticipantID: id, Attendee: a})
	}
	sort.Slice(list, func(i, j int) bool {
		in := strings.ToLower(list[i].DisplayName)
		jn := strings.ToLower(list[j].DisplayName)
		if in != jn {
			return in < jn
		}
		return list[i].ParticipantID < list[j].ParticipantID
	})
	return list
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
