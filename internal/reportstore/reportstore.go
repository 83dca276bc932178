// Package reportstore implements the on-disk report index SPEC_FULL.md §4
// adds for the `list_reports` tool operation (spec §4.12): a bounded,
// time-ordered scan of the reports/ directory tree the executor (C8) and
// pack runner (C10) already write into per spec §6's persisted-state
// layout.
//
// Grounded on the teacher's internal/session.Store TTL/eviction bookkeeping
// (bounded, most-recent-first enumeration) adapted from an in-memory map to
// a read-only directory scan — there is no live process state to evict
// here, only report directories to list newest-first and cap at max.
package reportstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind distinguishes a single-flow report from a pack report.
type Kind string

const (
	KindFlow Kind = "flow"
	KindPack Kind = "pack"
)

// Entry is one report directory's summary, as returned by list_reports.
type Entry struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Path      string    `json:"path"`
	ModTime   time.Time `json:"modTime"`
	Result    string    `json:"result,omitempty"`
}

// List scans dir (the reports/ root) for report.json and pack-report.json
// files, newest-directory-first, capped at max entries. A missing dir is
// not an error — it simply yields no entries, matching a fresh install
// that has not run anything yet.
func List(dir string, max int) ([]Entry, error) {
	if max <= 0 {
		max = 10
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reportstore: read %q: %w", dir, err)
	}

	type candidate struct {
		entry Entry
		mtime time.Time
	}
	var candidates []candidate
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		sub := filepath.Join(dir, info.Name())
		for kind, fname := range map[Kind]string{KindFlow: "report.json", KindPack: "pack-report.json"} {
			p := filepath.Join(sub, fname)
			st, statErr := os.Stat(p)
			if statErr != nil {
				continue
			}
			result := readResult(p)
			candidates = append(candidates, candidate{
				entry: Entry{Name: info.Name(), Kind: kind, Path: p, ModTime: st.ModTime(), Result: result},
				mtime: st.ModTime(),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime.After(candidates[j].mtime) })
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	out := make([]Entry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out, nil
}

// SaveFlowReport writes report to
// <dir>/<testName>_<yyyyMMdd_HHmmss>/report.json (spec §6's persisted
// state layout), creating the directory tree as needed.
func SaveFlowReport(dir string, report any, at time.Time) error {
	name := fmt.Sprintf("%s_%s", sanitizeName(flowTestName(report)), at.Format("20060102_150405"))
	return save(dir, name, "report.json", report)
}

// SavePackReport writes report to
// <dir>/<packName>_<yyyyMMdd_HHmmss>/pack-report.json (spec §6).
func SavePackReport(dir string, packName string, report any, at time.Time) error {
	name := fmt.Sprintf("%s_%s", sanitizeName(packName), at.Format("20060102_150405"))
	return save(dir, name, "pack-report.json", report)
}

func save(dir, subdir, filename string, report any) error {
	out := filepath.Join(dir, subdir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("reportstore: mkdir %q: %w", out, err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("reportstore: marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(out, filename), data, 0o644); err != nil {
		return fmt.Errorf("reportstore: write %q: %w", filename, err)
	}
	return nil
}

// flowTestName best-effort-extracts the "flowName" field from an arbitrary
// report value so SaveFlowReport can name the directory without importing
// the domain package (which would create an import cycle back from
// domain-adjacent callers in some configurations).
func flowTestName(report any) string {
	data, err := json.Marshal(report)
	if err != nil {
		return "flow"
	}
	var shape struct {
		FlowName string `json:"flowName"`
	}
	if json.Unmarshal(data, &shape) != nil || shape.FlowName == "" {
		return "flow"
	}
	return shape.FlowName
}

// sanitizeName strips characters that are awkward in a directory name.
func sanitizeName(name string) string {
	return sanitizeReplacer.Replace(name)
}

var sanitizeReplacer = strings.NewReplacer(
	" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

// readResult best-effort-extracts the top-level "result" field so the
// index can show pass/fail at a glance without the caller re-parsing the
// full report. A malformed or unreadable file yields an empty result
// rather than failing the whole listing.
func readResult(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var shape struct {
		Result string `json:"result"`
	}
	if json.Unmarshal(data, &shape) != nil {
		return ""
	}
	return shape.Result
}
