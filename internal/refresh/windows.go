package refresh

import "time"

// BatchDays is the scoreboard window width used for match syncs.
const BatchDays = 10

// Window is an inclusive day range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows splits [start, end] into consecutive inclusive windows of at most
// days calendar days. The last window is clipped to end.
func Windows(start, end time.Time, days int) []Window {
	if days < 1 {
		days = 1
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}

	var out []Window
	for cur := start; !cur.After(end); {
		last := cur.AddDate(0, 0, days-1)
		if last.After(end) {
			last = end
		}
		out = append(out, Window{Start: cur, End: last})
		cur = last.AddDate(0, 0, 1)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
