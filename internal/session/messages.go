package session

import "fmt"

const (
	minutesTitle            = "Meeting minutes"
	minutesSessionFormat    = "Session: %s"
	minutesPeriodFormat     = "Period: %s ~ %s (%s)"
	minutesDurationFormat   = "Duration: %s"
	minutesAttendeesFormat  = "Attendees (%d): %s"
	minutesAgendaHeading    = "Agenda"
	minutesVotesHeading     = "Votes"
	minutesNoAgenda         = "(no agenda items)"
	minutesNoVotes          = "(no votes held)"
	minutesNoBallots        = "no ballots cast"
	minutesNotesPrefix      = "    notes: "
	minutesItemLineFormat   = "%d. %s [%s] planned %s, spent %s"
	minutesVoteLineFormat   = "- %s (%d votes)"
	minutesTallyLineFormat  = "    %s: %d"
	minutesWinnerFormat     = "    result: %s"
	minutesTieFormat        = "    result: tie between %s"
	minutesLinkedItemFormat = "    agenda item: %s"

	messageMinutesAttachment = ":page_facing_up: **Meeting minutes**"
)

func minutesFilename(sessionID string) string {
	return fmt.Sprintf("minutes-%s.txt", sessionID)
}
