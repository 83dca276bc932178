package domain

// PlannedJourney is a Journey after the pack compiler has resolved its flow
// references and substituted its data profile — the unit the runner actually
// executes (spec §3, C9/C10).
type PlannedJourney struct {
	Journey  Journey    `json:"journey"`
	Flows    []TestFlow `json:"flows"`
	Attempts int        `json:"attempts"`
}

// PackPlan is the compiled, validated output of the Plan->Compile stage:
// every journey ordered and ready for the runner, plus any non-fatal
// warnings accumulated while resolving them (spec §3, C9).
type PackPlan struct {
	PackName    string              `json:"packName"`
	Journeys    []PlannedJourney    `json:"journeys"`
	Warnings    []string            `json:"warnings,omitempty"`
	CoverageMap map[string][]string `json:"coverageMap,omitempty"`
}

// CompileResult is the outcome of the Pack Compiler's validate-retry loop
// (spec §4.9, C9 Phase B/C): either a validated TestPack ready to run, or
// the accumulated errors from the last attempt and how many were made.
type CompileResult struct {
	Success  bool       `json:"success"`
	Pack     *TestPack  `json:"pack,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
	Attempts int        `json:"attempts"`
}
