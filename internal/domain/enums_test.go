package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windrift/uiflow/internal/domain"
)

func TestParseStepAction_CaseInsensitive(t *testing.T) {
	cases := []string{"click", "Click", "CLICK", "  click  "}
	for _, raw := range cases {
		a, ok := domain.ParseStepAction(raw)
		require.True(t, ok, raw)
		assert.Equal(t, domain.ActionClick, a)
	}
}

func TestParseStepAction_HyphenAndSpaceVariants(t *testing.T) {
	a, ok := domain.ParseStepAction("send-keys")
	require.True(t, ok)
	assert.Equal(t, domain.ActionSendKeys, a)

	b, ok := domain.ParseStepAction("send keys")
	require.True(t, ok)
	assert.Equal(t, domain.ActionSendKeys, b)
}

func TestParseStepAction_Unknown(t *testing.T) {
	_, ok := domain.ParseStepAction("teleport")
	assert.False(t, ok)
}

func TestStepAction_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Action domain.StepAction `json:"action"`
	}
	raw := []byte(`{"action":"ASSERT_EXISTS"}`)
	var w wrapper
	require.NoError(t, json.Unmarshal(raw, &w))
	assert.Equal(t, domain.ActionAssertExists, w.Action)

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"assert_exists"}`, string(out))
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, domain.PriorityP0.Rank(), domain.PriorityP1.Rank())
	assert.Less(t, domain.PriorityP1.Rank(), domain.PriorityP2.Rank())
	assert.Less(t, domain.PriorityP2.Rank(), domain.PriorityP3.Rank())
	assert.Greater(t, domain.Priority("bogus").Rank(), domain.PriorityP3.Rank())
}

func TestNormalizeBackend_LegacyTokenWarns(t *testing.T) {
	b, changed := domain.NormalizeBackend("desktop-uia")
	assert.Equal(t, domain.BackendDesktop, b)
	assert.True(t, changed)

	b2, changed2 := domain.NormalizeBackend("desktop")
	assert.Equal(t, domain.BackendDesktop, b2)
	assert.False(t, changed2)
}

func TestIsKnownControlType(t *testing.T) {
	assert.True(t, domain.IsKnownControlType("Button"))
	assert.True(t, domain.IsKnownControlType(""))
	assert.False(t, domain.IsKnownControlType("Widget"))
}

func TestPerceptionPolicy_IsActionEligible(t *testing.T) {
	open := domain.PerceptionPolicy{}
	assert.True(t, open.IsActionEligible(domain.ActionClick))

	scoped := domain.PerceptionPolicy{VisionEligibleActions: []domain.StepAction{domain.ActionClick}}
	assert.True(t, scoped.IsActionEligible(domain.ActionClick))
	assert.False(t, scoped.IsActionEligible(domain.ActionType))
}
