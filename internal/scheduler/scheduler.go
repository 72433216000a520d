package scheduler

import (
	"sort"
	"strings"
)

// Scoring weights. Higher totals are better.
const (
	weightSuccess = 0.4
	weightLoad    = 0.3
	weightWait    = 0.3
)

// FilterByCapabilities returns the printers that satisfy every hard
// requirement: available, material supported (case-insensitive), build
// volume sufficient on all three axes, and requested nozzle size installed.
// Absent requirement fields don't filter.
func FilterByCapabilities(capabilities []PrinterCapabilities, req JobRequirements) []PrinterCapabilities {
	var matched []PrinterCapabilities
	for _, c := range capabilities {
		if !c.IsAvailable {
			continue
		}
		if req.Material != "" && !hasMaterial(c.Materials, req.Material) {
			continue
		}
		if req.MinBuildVolume != nil && !c.MaxBuildVolume.Fits(*req.MinBuildVolume) {
			continue
		}
		if req.NozzleSize != nil && !hasNozzle(c.NozzleSizes, *req.NozzleSize) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func hasMaterial(materials []string, want string) bool {
	for _, m := range materials {
		if strings.EqualFold(m, want) {
			return true
		}
	}
	return false
}

func hasNozzle(sizes []float64, want float64) bool {
	for _, s := range sizes {
		if s == want {
			return true
		}
	}
	return false
}

// ScorePrinter computes the soft ranking score for one printer:
// weighted success rate, idle headroom, and inverse queue wait. The three
// components are reported individually for explainability.
func ScorePrinter(c PrinterCapabilities) PrinterScore {
	wait := c.EstimatedQueueWaitMinutes
	if wait < 1 {
		wait = 1
	}

	score := PrinterScore{
		PrinterID:        c.PrinterID,
		SuccessComponent: c.SuccessRate * weightSuccess,
		LoadComponent:    (1 - c.CurrentLoad) * weightLoad,
		WaitComponent:    (1 / float64(wait)) * weightWait,
	}
	score.TotalScore = score.SuccessComponent + score.LoadComponent + score.WaitComponent
	return score
}

// SelectBestPrinter ranks candidate printers for one job under the given
// strategy. Empty input or no surviving candidates yields an empty result,
// never an error.
//
// RoundRobin and LeastLoaded ignore job requirements entirely; that is their
// documented contract, not an oversight. Unknown strategies fall back to
// CapabilityMatched.
func SelectBestPrinter(capabilities []PrinterCapabilities, req JobRequirements, strategy Strategy) []PrinterScore {
	switch strategy {
	case StrategyRoundRobin:
		return scoreAll(available(capabilities))

	case StrategyLeastLoaded:
		candidates := available(capabilities)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CurrentLoad < candidates[j].CurrentLoad
		})
		return scoreAll(candidates)

	default:
		scores := scoreAll(FilterByCapabilities(capabilities, req))
		sort.SliceStable(scores, func(i, j int) bool {
			return scores[i].TotalScore > scores[j].TotalScore
		})
		return scores
	}
}

func available(capabilities []PrinterCapabilities) []PrinterCapabilities {
	var out []PrinterCapabilities
	for _, c := range capabilities {
		if c.IsAvailable {
			out = append(out, c)
		}
	}
	return out
}

func scoreAll(capabilities []PrinterCapabilities) []PrinterScore {
	scores := make([]PrinterScore, 0, len(capabilities))
	for _, c := range capabilities {
		scores = append(scores, ScorePrinter(c))
	}
	return scores
}
