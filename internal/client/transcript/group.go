package transcript

import "time"

// DayGroup is the run of messages sent on one calendar day.
type DayGroup struct {
	Day      time.Time // midnight of the day in the grouping location
	Messages []Message
}

// GroupByDay partitions messages by the calendar day of SentAt in loc.
// Groups appear in order of each day's first occurrence; messages inside a
// group keep their transcript order. The input is not modified.
func GroupByDay(messages []Message, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}

	var groups []DayGroup
	index := make(map[time.Time]int)

	for _, m := range messages {
		day := dayOf(m.SentAt, loc)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
