// Package packreport implements the Pack Report Builder (C11): an
// idempotent, deterministic enrichment pass over the Pack Runner's raw
// PackReport, producing the failures list, aggregated warnings, coverage
// map, perception stats, fix queue, and confidence score (spec §4.11).
package packreport

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/util"
)

// maxSummaryMessageRunes bounds how much of a raw backend error message
// (which can carry an arbitrarily long underlying-driver string) is echoed
// into a fix-queue item's one-line summary.
const maxSummaryMessageRunes = 160

// Build enriches raw (as produced by internal/packrun.Run) using pack for
// guardrail/journey context and plan, if available, for the coverage map.
// Build performs no I/O and is deterministic for a given input triple.
func Build(raw domain.PackReport, pack domain.TestPack, plan *domain.PackPlan) domain.PackReport {
	report := raw

	report.Failures = collectFailures(raw.Journeys)
	report.Warnings = collectWarnings(raw.Journeys)
	report.Coverage = buildCoverageMap(raw.Journeys, plan)
	report.Perception = computePerceptionStats(raw.Journeys)
	report.FixQueue = buildFixQueue(report.Failures, raw.Journeys)
	report.ConfidenceScore = confidenceScore(raw.Journeys, report.Coverage, report.Perception)

	return report
}

func collectFailures(journeys []domain.JourneyResult) []domain.PackFailure {
	var out []domain.PackFailure
	for _, j := range journeys {
		for _, e := range j.Executions {
			for _, s := range e.Steps {
				if s.Status != domain.StatusFailed && s.Status != domain.StatusError {
					continue
				}
				out = append(out, domain.PackFailure{
					JourneyName: j.JourneyName,
					FlowName:    e.FlowName,
					StepOrder:   s.Order,
					Action:      s.Action,
					Message:     s.Error,
					Evidence: domain.FailureEvidence{
						ScreenshotPath: s.ScreenshotPath,
						BackendMessage: s.Error,
					},
				})
			}
		}
	}
	return out
}

func collectWarnings(journeys []domain.JourneyResult) []domain.Warning {
	var out []domain.Warning
	for _, j := range journeys {
		for _, e := range j.Executions {
			for _, s := range e.Steps {
				for _, code := range s.WarningCodes {
					msg := fmt.Sprintf("step %d", s.Order)
					if code == domain.WarningVisionFallbackUsed {
						msg = fmt.Sprintf("step %d used vision fallback (confidence %.2f)", s.Order, s.VisionConfidence)
					}
					out = append(out, domain.Warning{Code: code, JourneyName: j.JourneyName, Message: msg})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// buildCoverageMap computes ok/partial/missing per plan.CoverageMap area, or
// per-journey coverage directly from the run when no plan is available.
func buildCoverageMap(journeys []domain.JourneyResult, plan *domain.PackPlan) map[string]domain.CoverageStatus {
	coverage := map[string]domain.CoverageStatus{}
	byName := make(map[string]domain.JourneyResult, len(journeys))
	for _, j := range journeys {
		byName[j.JourneyName] = j
	}

	if plan == nil || len(plan.CoverageMap) == 0 {
		for _, j := range journeys {
			coverage[j.JourneyName] = j.Coverage
		}
		return coverage
	}

	for area, journeyNames := range plan.CoverageMap {
		coverage[area] = areaStatus(journeyNames, byName)
	}
	return coverage
}

func areaStatus(journeyNames []string, byName map[string]domain.JourneyResult) domain.CoverageStatus {
	touched, allOK, anyOK := false, true, false
	for _, name := range journeyNames {
		j, ok := byName[name]
		if !ok || j.Coverage == domain.CoverageSkipped {
			allOK = false
			continue
		}
		touched = true
		if j.Coverage == domain.CoverageCovered {
			anyOK = true
		} else {
			allOK = false
		}
	}
	switch {
	case !touched:
		return domain.CoverageNotCovered
	case allOK:
		return domain.CoverageCovered
	case anyOK:
		return domain.CoveragePartiallyCovered
	default:
		return domain.CoveragePartiallyCovered
	}
}

func computePerceptionStats(journeys []domain.JourneyResult) domain.PerceptionStats {
	var stats domain.PerceptionStats
	for _, j := range journeys {
		stats.TotalSteps += j.TotalSteps()
		stats.VisionFallbacks += j.UsedVisionCount()
	}
	stats.StructuralResolved = stats.TotalSteps - stats.VisionFallbacks
	return stats
}

// buildFixQueue groups failures by (action, message) — the closest
// approximation of spec's "same selector + same root cause signature" this
// domain model's PackFailure shape supports — and ranks groups by journey
// priority (p0 highest), then failure count, then recency (first occurrence
// order, since the runner doesn't retain wall-clock timestamps per failure).
func buildFixQueue(failures []domain.PackFailure, journeys []domain.JourneyResult) []domain.FixQueueItem {
	priorityByJourney := make(map[string]domain.Priority, len(journeys))
	for _, j := range journeys {
		priorityByJourney[j.JourneyName] = j.Priority
	}

	type group struct {
		key       string
		first     domain.PackFailure
		count     int
		firstSeen int
		priority  domain.Priority
	}
	groups := map[string]*group{}
	var order []string

	for i, f := range failures {
		key := groupKey(f)
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, first: f, firstSeen: i, priority: priorityByJourney[f.JourneyName]}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
	}

	items := make([]*group, 0, len(order))
	for _, k := range order {
		items = append(items, groups[k])
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].priority.Rank() != items[j].priority.Rank() {
			return items[i].priority.Rank() < items[j].priority.Rank()
		}
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].firstSeen < items[j].firstSeen
	})

	queue := make([]domain.FixQueueItem, 0, len(items))
	for rank, g := range items {
		item := domain.FixQueueItem{
			Rank:        rank,
			JourneyName: g.first.JourneyName,
			FlowName:    g.first.FlowName,
			StepOrder:   g.first.StepOrder,
			Priority:    g.priority,
			Summary:     fmt.Sprintf("%s (x%d): %s", g.first.Action, g.count, util.TruncateRunes(g.first.Message, maxSummaryMessageRunes)),
		}
		packet := BuildFixPacket(item, g.first)
		item.Hint = packet.Hint
		item.Evidence = packet.Evidence
		item.Suggestion = packet.Suggestion
		queue = append(queue, item)
	}
	return queue
}

func groupKey(f domain.PackFailure) string {
	return string(f.Action) + "|" + f.Message
}

// Hint returns the machine-readable fix-packet hint spec §4.11 names,
// inferred from the failure message's shape since this domain model's
// PackFailure doesn't carry a structured root-cause field.
func Hint(f domain.PackFailure) string {
	msg := strings.ToLower(f.Message)
	switch {
	case strings.Contains(msg, "target lock"):
		return "target_lock_violation"
	case strings.Contains(msg, "vision") && strings.Contains(msg, "confidence"):
		return "vision_below_threshold"
	case strings.Contains(msg, "window") && strings.Contains(msg, "not found"):
		return "window_missing"
	case strings.Contains(msg, "disabled"):
		return "element_disabled"
	case strings.Contains(msg, "unknown action"):
		return "unknown_action"
	case f.Action == domain.ActionAssertText:
		return "text_mismatch"
	default:
		return "bad_selector"
	}
}

// BuildFixPacket bundles a FixQueueItem with its machine-readable hint,
// evidence, and a human-readable suggestion (spec §4.11, §4.12's
// get_fix_queue/analyze_report).
func BuildFixPacket(item domain.FixQueueItem, failure domain.PackFailure) domain.FixPacket {
	return domain.FixPacket{
		Item:       item,
		Hint:       Hint(failure),
		Evidence:   failure.Evidence,
		Suggestion: failure.Message,
	}
}

// confidenceScore implements spec §4.11's weighted formula, rounded to 3
// decimal places.
func confidenceScore(journeys []domain.JourneyResult, coverage map[string]domain.CoverageStatus, perception domain.PerceptionStats) float64 {
	total := len(journeys)
	passed := 0
	warnings := 0
	for _, j := range journeys {
		if j.Result == domain.ResultPassed {
			passed++
		}
		for _, e := range j.Executions {
			for _, s := range e.Steps {
				warnings += len(s.WarningCodes)
			}
		}
	}
	journeyPassRate := float64(passed) / float64(maxInt(1, total))

	totalAreas := len(coverage)
	okAreas := 0
	for _, status := range coverage {
		if status == domain.CoverageCovered {
			okAreas++
		}
	}
	coverageCompletion := float64(okAreas) / float64(maxInt(1, totalAreas))

	fallbackRate := float64(perception.VisionFallbacks) / float64(maxInt(1, perception.TotalSteps))
	warningRate := float64(warnings) / float64(maxInt(1, perception.TotalSteps))

	score := 0.6*journeyPassRate + 0.2*coverageCompletion + 0.1*(1-fallbackRate) + 0.1*(1-math.Min(1, 2*warningRate))
	return math.Round(score*1000) / 1000
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
