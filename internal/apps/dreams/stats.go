package dreams

import (
	"sort"
	"time"
)

const maxRecurringThemes = 5

type moodBucketDef struct {
	label    string
	emoji    string
	gradient [2]string
	moods    []Mood
}

var moodBuckets = []moodBucketDef{
	{label: "Positive", emoji: "😊", gradient: [2]string{"#10B981", "#059669"}, moods: []Mood{MoodHappy, MoodPeaceful, MoodExcited}},
	{label: "Negative", emoji: "😔", gradient: [2]string{"#EF4444", "#DC2626"}, moods: []Mood{MoodSad, MoodAnxious}},
	{label: "Neutral", emoji: "😐", gradient: [2]string{"#6B7280", "#4B5563"}, moods: []Mood{MoodNeutral, MoodConfused}},
}

func isPositive(m Mood) bool {
	return m == MoodHappy || m == MoodPeaceful || m == MoodExcited
}

// ComputeStats aggregates a dream collection as of now. Input order does not
// matter and the slice is not modified. Calendar days are taken in now's
// location.
func ComputeStats(dreams []Dream, now time.Time) DreamStats {
	stats := DreamStats{TotalDreams: len(dreams)}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	moodCounts := make(map[Mood]int)
	for i := range dreams {
		d := &dreams[i]
		if !d.Date.Before(weekAgo) {
			stats.AverageDreamsPerWeek++
		}
		if d.IsLucid {
			stats.LucidDreams++
		}
		if d.IsNightmare {
			stats.Nightmares++
		}
		if isPositive(d.Mood) {
			stats.PositiveDreams++
		}
		moodCounts[d.Mood]++
	}

	stats.CurrentStreak, stats.LongestStreak = computeStreaks(dreams, now)
	stats.RecurringThemes = recurringThemes(dreams)
	stats.MoodDistribution = moodDistribution(moodCounts, len(dreams))
	return stats
}

// computeStreaks walks dreams newest first. A gap of exactly one calendar
// day extends the running streak; any other gap, including a second dream on
// the same day, closes it and starts a new one. The current streak only
// exists when the newest dream is dated today.
func computeStreaks(dreams []Dream, now time.Time) (current, longest int) {
	if len(dreams) == 0 {
		return 0, 0
	}

	loc := now.Location()
	dates := make([]time.Time, len(dreams))
	for i := range dreams {
		dates[i] = dreams[i].Date
	}
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})

	today := startOfDay(now)
	running := 0
	var last time.Time
	for i, date := range dates {
		day := startOfDay(date.In(loc))
		if i == 0 {
			running = 1
			if day.Equal(today) {
				current = 1
			}
		} else if daysBetween(day, last) == 1 {
			running++
			if current > 0 && running > current {
				current = running
			}
		} else {
			longest = max(longest, running)
			running = 1
		}
		last = day
	}
	longest = max(longest, running)

	return current, longest
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from one midnight to another, ignoring
// DST shifts in between.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func recurringThemes(dreams []Dream) []ThemeCount {
	counts := make(map[string]int)
	var order []string
	for i := range dreams {
		for _, tag := range dreams[i].Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	themes := make([]ThemeCount, 0, len(order))
	for _, tag := range order {
		if counts[tag] > 1 {
			themes = append(themes, ThemeCount{Tag: tag, Count: counts[tag]})
		}
	}
	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Count > themes[j].Count
	})

	if len(themes) > maxRecurringThemes {
		themes = themes[:maxRecurringThemes]
	}
	return themes
}

func moodDistribution(moodCounts map[Mood]int, total int) []MoodBucket {
	buckets := make([]MoodBucket, 0, len(moodBuckets))
	for _, def := range moodBuckets {
		n := 0
		for _, m := range def.moods {
			n += moodCounts[m]
		}
		buckets = append(buckets, MoodBucket{
			Label:      def.label,
			Percentage: percentage(n, total),
			Emoji:      def.emoji,
			Gradient:   def.gradient,
		})
	}
	return buckets
}

// percentage rounds half up; an empty total yields 0.
func percentage(n, total int) int {
	if total == 0 {
		return 0
	}
	return (200*n + total) / (2 * total)
}
