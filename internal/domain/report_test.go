package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windrift/uiflow/internal/domain"
)

func TestExecutionReport_FailedStepCount(t *testing.T) {
	r := domain.ExecutionReport{
		Steps: []domain.StepResult{
			{Status: domain.StatusPassed},
			{Status: domain.StatusFailed},
			{Status: domain.StatusError},
			{Status: domain.StatusSkipped},
		},
	}
	assert.Equal(t, 2, r.FailedStepCount())
}

func TestExecutionReport_UsedVisionCount(t *testing.T) {
	r := domain.ExecutionReport{
		Steps: []domain.StepResult{
			{UsedVision: true},
			{UsedVision: false},
			{UsedVision: true},
		},
	}
	assert.Equal(t, 2, r.UsedVisionCount())
}

func TestStepResult_JSONRoundTrip(t *testing.T) {
	s := domain.StepResult{
		Order:  3,
		Action: domain.ActionClick,
		Status: domain.StatusWarning,
		WarningCodes: []domain.WarningCode{domain.WarningVisionFallbackUsed},
		ResolvedPoint: &domain.ClickPoint{X: 12, Y: 34},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out domain.StepResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, domain.StatusWarning, out.Status)
	require.NotNil(t, out.ResolvedPoint)
	assert.Equal(t, 12, out.ResolvedPoint.X)
}

func TestPackReport_JSONRoundTrip(t *testing.T) {
	rep := domain.PackReport{
		PackName: "checkout",
		Result:   domain.ResultMixed,
		Coverage: map[string]domain.CoverageStatus{
			"login-journey": domain.CoverageCovered,
		},
		FixQueue: []domain.FixQueueItem{
			{Rank: 0, JourneyName: "login-journey", Priority: domain.PriorityP0, Summary: "selector not found"},
		},
		ConfidenceScore: 0.82,
	}
	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var out domain.PackReport
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, domain.ResultMixed, out.Result)
	assert.Equal(t, domain.CoverageCovered, out.Coverage["login-journey"])
	require.Len(t, out.FixQueue, 1)
	assert.InDelta(t, 0.82, out.ConfidenceScore, 0.0001)
}
