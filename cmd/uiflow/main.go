// Command uiflow is the core binary's CLI surface (spec §6): flow
// validation, single-flow execution, full pack pipeline execution, and an
// MCP stdio server mode, dispatching to a single exit-code contract.
//
// Grounded on the teacher's cmd/omega/main.go: a long-running process
// configured by env vars plus config.json, no CLI-framework dependency
// (DESIGN.md records why cobra was not adopted) — flags are parsed with
// the standard library and dispatch to plain functions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/windrift/uiflow/internal/agenttools"
	"github.com/windrift/uiflow/internal/agenttools/builtin"
	"github.com/windrift/uiflow/internal/auditlog"
	"github.com/windrift/uiflow/internal/backend"
	"github.com/windrift/uiflow/internal/chatclient"
	"github.com/windrift/uiflow/internal/config"
	"github.com/windrift/uiflow/internal/domain"
	"github.com/windrift/uiflow/internal/executor"
	"github.com/windrift/uiflow/internal/mcpserver"
	"github.com/windrift/uiflow/internal/packplan"
	"github.com/windrift/uiflow/internal/packreport"
	"github.com/windrift/uiflow/internal/packrun"
	"github.com/windrift/uiflow/internal/reportstore"
	"github.com/windrift/uiflow/internal/validator"
	"github.com/windrift/uiflow/internal/vision"
	"github.com/windrift/uiflow/pkg/safety"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

// Exit codes (spec §6): 0 success, 1 test/flow failure, 2 configuration/
// validation error, 3 backend/capability missing, 4 cancelled, 5 internal error.
const (
	exitSuccess      = 0
	exitFailure      = 1
	exitConfigError  = 2
	exitBackendMissing = 3
	exitCancelled    = 4
	exitInternal     = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("uiflow", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		showHelp    = fs.Bool("help", false, "print usage and exit")
		showVersion = fs.Bool("version", false, "print version and exit")
		validatePath = fs.String("validate", "", "validate a TestFlow JSON file")
		runPath      = fs.String("run", "", "execute a TestFlow JSON file")
		runPackPath  = fs.String("run-pack", "", "execute a TestPack JSON file end to end")
		mcpMode      = fs.Bool("mcp", false, "run as a stdio MCP tool server")
		configPath   = fs.String("config", "config.json", "path to config.json")
		reportsDir   = fs.String("reports-dir", "reports", "directory reports are written under")
	)

	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	switch {
	case *showHelp:
		fs.Usage()
		return exitSuccess
	case *showVersion:
		fmt.Println("uiflow " + version)
		return exitSuccess
	case *validatePath != "":
		return cmdValidate(*validatePath)
	case *runPath != "":
		return cmdRun(*runPath, *configPath, *reportsDir)
	case *runPackPath != "":
		return cmdRunPack(*runPackPath, *configPath, *reportsDir)
	case *mcpMode:
		return cmdMCP(*configPath, *reportsDir)
	default:
		fs.Usage()
		return exitConfigError
	}
}

func cmdValidate(path string) int {
	flow, err := readFlow(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	result := validator.Validate(&flow)
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e)
	}
	if result.Valid() {
		fmt.Println("valid")
		return exitSuccess
	}
	return exitConfigError
}

func cmdRun(path, configPath, reportsDir string) int {
	flow, err := readFlow(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	cfg, _ := config.Load(configPath)
	deps := buildDeps(cfg)
	defer deps.audit.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()

	report := executor.ExecuteFlow(ctx, flow, deps.backend, executor.Options{
		Vision:     deps.visionPolicy,
		KillSwitch: deps.killSwitch,
		Audit:      deps.audit,
		Allowlist:  deps.allowlist,
	})

	if err := reportstore.SaveFlowReport(reportsDir, report, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report executed but not saved: %v\n", err)
	}

	printJSON(report)

	if ctx.Err() != nil {
		return exitCancelled
	}
	if report.Result == domain.ResultPassed {
		return exitSuccess
	}
	return exitFailure
}

func cmdRunPack(path, configPath, reportsDir string) int {
	pack, err := readPack(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	cfg, _ := config.Load(configPath)
	chat, err := buildChatClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBackendMissing
	}
	deps := buildDeps(cfg)
	defer deps.audit.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()

	plan, err := packplan.Plan(ctx, pack, chat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan phase failed:", err)
		return exitFailure
	}
	compiled := packplan.Compile(ctx, pack, plan, chat)
	if !compiled.Success || compiled.Pack == nil {
		fmt.Fprintln(os.Stderr, "compile/validate phase did not converge:", compiled.Errors)
		return exitFailure
	}

	backends := map[domain.Backend]backend.AutomationBackend{domain.BackendDesktop: deps.backend}
	raw := packrun.Run(ctx, *compiled.Pack, packrun.Options{
		Backends:   backends,
		Vision:     deps.visionPolicy,
		KillSwitch: deps.killSwitch,
		Audit:      deps.audit,
		Allowlist:  deps.allowlist,
	})
	final := packreport.Build(raw, *compiled.Pack, &plan)

	if err := reportstore.SavePackReport(reportsDir, final.PackName, final, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report executed but not saved: %v\n", err)
	}

	printJSON(final)

	if ctx.Err() != nil {
		return exitCancelled
	}
	threshold := 0.7
	if final.ConfidenceScore >= threshold && len(final.Failures) == 0 {
		return exitSuccess
	}
	return exitFailure
}

func cmdMCP(configPath, reportsDir string) int {
	cfg, _ := config.Load(configPath)
	deps := buildDeps(cfg)
	defer deps.audit.Close()

	reg := agenttools.NewRegistry()
	session := builtin.NewSession()
	reg.Register(builtin.NewListWindowsTool(deps.backend))
	reg.Register(builtin.NewInspectWindowTool(deps.backend))
	reg.Register(builtin.NewListProcessesTool(deps.backend))
	reg.Register(builtin.NewGetCapabilitiesTool(deps.backend))
	reg.Register(builtin.NewCaptureScreenshotTool(deps.backend))
	if deps.visionResolver != nil {
		reg.Register(builtin.NewLocateByVisionTool(deps.backend, deps.backend, deps.visionResolver, cfg.VisionThreshold))
	}
	reg.Register(builtin.NewValidateFlowTool())
	reg.Register(builtin.NewRunFlowTool(deps.backend, executor.Options{
		Vision: deps.visionPolicy, KillSwitch: deps.killSwitch, Audit: deps.audit, Allowlist: deps.allowlist,
	}, reportsDir))
	reg.Register(builtin.NewListReportsTool(reportsDir))

	if chat, err := buildChatClient(cfg); err == nil {
		backends := map[domain.Backend]backend.AutomationBackend{domain.BackendDesktop: deps.backend}
		runOpts := packrun.Options{Backends: backends, Vision: deps.visionPolicy, KillSwitch: deps.killSwitch, Audit: deps.audit, Allowlist: deps.allowlist}
		reg.Register(builtin.NewPlanPackTool(chat, session))
		reg.Register(builtin.NewRunPipelineTool(chat, backends, runOpts, session, reportsDir))
	}
	reg.Register(builtin.NewGetFixQueueTool(session))
	reg.Register(builtin.NewGetConfidenceTool(session))
	reg.Register(builtin.NewAnalyzeReportTool(session))

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := mcpserver.Serve(ctx, reg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInternal
	}
	return exitSuccess
}

// runtimeDeps bundles the capability instances every CLI mode needs, built
// once from config.json so --run, --run-pack, and --mcp share identical wiring.
type runtimeDeps struct {
	backend        *backend.DesktopBackend
	visionResolver *vision.Resolver
	visionPolicy   executor.VisionPolicy
	killSwitch     *safety.KillSwitch
	allowlist      *safety.Allowlist
	audit          *auditlog.Log
}

func buildDeps(cfg config.RuntimeConfig) runtimeDeps {
	allowlist := safety.NewAllowlist(cfg.Allowlist...)
	killSwitch := safety.NewKillSwitch()

	logPath := filepath.Join("logs", "audit_log.txt")
	audit, err := auditlog.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open audit log at %s: %v\n", logPath, err)
		audit = auditlog.Nop()
	}

	var resolver *vision.Resolver
	var visionCapability backend.VisionResolver
	if chat, err := buildChatClient(cfg); err == nil {
		resolver = vision.NewResolver(chat, filepath.Join("reports", "_vision"))
		visionCapability = resolver
	}

	b := backend.NewDesktopBackend(backend.UnimplementedSurface{}, backend.DefaultTiming(), visionCapability)

	return runtimeDeps{
		backend:        b,
		visionResolver: resolver,
		visionPolicy: executor.VisionPolicy{
			Enabled:             resolver != nil,
			ConfidenceThreshold: cfg.VisionThreshold,
		},
		killSwitch: killSwitch,
		allowlist:  allowlist,
		audit:      audit,
	}
}

func buildChatClient(cfg config.RuntimeConfig) (chatclient.ChatClient, error) {
	apiKey := os.Getenv("UIFLOW_LLM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("uiflow: UIFLOW_LLM_API_KEY is not set")
	}
	return chatclient.NewOpenAIClient(chatclient.OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: cfg.AgentEndpoint,
		Model:   cfg.ModelID,
	})
}

func readFlow(path string) (domain.TestFlow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.TestFlow{}, fmt.Errorf("uiflow: read %q: %w", path, err)
	}
	var flow domain.TestFlow
	if err := json.Unmarshal(data, &flow); err != nil {
		return domain.TestFlow{}, fmt.Errorf("uiflow: parse %q as a TestFlow: %w", path, err)
	}
	return flow, nil
}

func readPack(path string) (domain.TestPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.TestPack{}, fmt.Errorf("uiflow: read %q: %w", path, err)
	}
	var pack domain.TestPack
	if err := json.Unmarshal(data, &pack); err != nil {
		return domain.TestPack{}, fmt.Errorf("uiflow: parse %q as a TestPack: %w", path, err)
	}
	return pack, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// contextWithSignals returns a context cancelled on SIGINT/SIGTERM, the
// CLI's only cancellation trigger (spec §5's cancellation token threaded
// through execute_flow/execute_pack).
func contextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
