package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/windrift/uiflow/internal/executor"
)

func TestValidateFlowTool_ReportsErrorsWithoutSideEffects(t *testing.T) {
	tool := NewValidateFlowTool()
	args, _ := json.Marshal(map[string]any{
		"flow_json": map[string]any{
			"testName": "t",
			"backend": "desktop",
			"steps":   []map[string]any{{"order": 1, "action": "click"}},
		},
	})

	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Errors []string `json:"errors"`
	}
	if jsonErr := json.Unmarshal([]byte(res.Output), &out); jsonErr != nil {
		t.Fatalf("unmarshal result: %v", jsonErr)
	}
	if len(out.Errors) == 0 {
		t.Fatalf("expected a missing-selector error, got none")
	}
}

func TestValidateFlowTool_ValidFlowHasNoErrors(t *testing.T) {
	tool := NewValidateFlowTool()
	args, _ := json.Marshal(map[string]any{
		"flow_json": map[string]any{
			"testName": "t",
			"backend": "desktop",
			"steps": []map[string]any{
				{"order": 1, "action": "wait", "timeoutMs": 100},
			},
		},
	})
	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Errors []string `json:"errors"`
	}
	if jsonErr := json.Unmarshal([]byte(res.Output), &out); jsonErr != nil {
		t.Fatalf("unmarshal result: %v", jsonErr)
	}
	if len(out.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", out.Errors)
	}
}

func TestRunFlowTool_ExecutesAndSavesReport(t *testing.T) {
	_, b := newTestBackend()
	dir := t.TempDir()

	tool := NewRunFlowTool(b, executor.Options{}, dir)
	args, _ := json.Marshal(map[string]any{
		"flow_json": map[string]any{
			"testName": "smoke",
			"backend": "desktop",
			"steps": []map[string]any{
				{"order": 1, "action": "wait", "timeoutMs": 1},
			},
		},
	})

	res, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Error != "" {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one report directory, got %v (err=%v)", entries, readErr)
	}
	reportPath := filepath.Join(dir, entries[0].Name(), "report.json")
	if _, statErr := os.Stat(reportPath); statErr != nil {
		t.Fatalf("expected report.json at %s: %v", reportPath, statErr)
	}
}

func TestListReportsTool_ReturnsSavedReports(t *testing.T) {
	_, b := newTestBackend()
	dir := t.TempDir()
	runTool := NewRunFlowTool(b, executor.Options{}, dir)
	args, _ := json.Marshal(map[string]any{
		"flow_json": map[string]any{
			"testName": "smoke",
			"backend": "desktop",
			"steps": []map[string]any{
				{"order": 1, "action": "wait", "timeoutMs": 1},
			},
		},
	})
	if _, err := runTool.Execute(context.Background(), args); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}

	listTool := NewListReportsTool(dir)
	res, err := listTool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []map[string]any
	if jsonErr := json.Unmarshal([]byte(res.Output), &entries); jsonErr != nil {
		t.Fatalf("unmarshal result: %v", jsonErr)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}
