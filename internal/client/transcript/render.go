package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// FormatDay renders a day header such as "Monday, 01.01.2024".
func FormatDay(day time.Time) string {
	return day.Format("Monday, 02.01.2006")
}

// FormatTime renders a message time label. Messages from a day other than
// today also get the date, as in "10:05 • 01.01".
func FormatTime(sentAt, now time.Time, loc *time.Location) string {
	local := sentAt.In(loc)
	label := local.Format("15:04")
	if !dayOf(local, loc).Equal(dayOf(now, loc)) {
		label += " • " + local.Format("02.01")
	}
	return label
}

// Render writes the grouped transcript as plain text. Lines authored by self
// are marked with a leading '>'.
func Render(w io.Writer, groups []DayGroup, self string, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "—— %s ——\n", FormatDay(g.Day)); err != nil {
			return err
		}
		for _, m := range g.Messages {
			if _, err := io.WriteString(w, Line(m, self, now, loc)+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Line renders a single message.
func Line(m Message, self string, now time.Time, loc *time.Location) string {
	marker := " "
	if self != "" && m.Author == self {
		marker = ">"
	}
	return fmt.Sprintf("%s [%s] %s: %s", marker, FormatTime(m.SentAt, now, loc), m.Author, strings.TrimSpace(m.Body))
}
