package report

import (
	"math"
	"sort"

	"github.com/parkcare/care-api/internal/model"
)

// Averages computes per-dimension means rounded to one decimal place.
// Returns nil for an empty window; callers must not see zeros where no
// data exists.
func Averages(checkIns []*model.CheckIn) *model.SymptomAverages {
	if len(checkIns) == 0 {
		return nil
	}

	var tremor, stiffness, balance, sleep, mood int
	for _, c := range checkIns {
		tremor += c.TremorScore
		stiffness += c.StiffnessScore
		balance += c.BalanceScore
		sleep += c.SleepScore
		mood += c.MoodScore
	}

	n := float64(len(checkIns))
	return &model.SymptomAverages{
		AvgTremor:    round1(float64(tremor) / n),
		AvgStiffness: round1(float64(stiffness) / n),
		AvgBalance:   round1(float64(balance) / n),
		AvgSleep:     round1(float64(sleep) / n),
		AvgMood:      round1(float64(mood) / n),
	}
}

// Adherence is the percentage of days medication was fully taken, rounded
// to the nearest integer. Partial doses do not count. Nil for an empty
// window.
func Adherence(checkIns []*model.CheckIn) *int {
	if len(checkIns) == 0 {
		return nil
	}

	taken := 0
	for _, c := range checkIns {
		if c.MedicationTaken == model.MedicationTaken {
			taken++
		}
	}
	pct := int(math.Round(100 * float64(taken) / float64(len(checkIns))))
	return &pct
}

// TopSideEffects ranks reported side effects by frequency, keeping at most
// limit entries. Ties keep first-reported order.
func TopSideEffects(checkIns []*model.CheckIn, limit int) []model.SideEffectCount {
	counts := make(map[string]int)
	var order []string
	for _, c := range checkIns {
		for _, effect := range c.SideEffects {
			if _, seen := counts[effect]; !seen {
				order = append(order, effect)
			}
			counts[effect]++
		}
	}

	ranked := make([]model.SideEffectCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, model.SideEffectCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// WindowStatsFor summarizes one patient's window.
func WindowStatsFor(checkIns []*model.CheckIn) *model.WindowStats {
	return &model.WindowStats{
		TotalCheckIns:       len(checkIns),
		Averages:            Averages(checkIns),
		MedicationAdherence: Adherence(checkIns),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
