// Package orchestrate glues the executor, caches, summarizers, and the
// destination resolver into the build, test, and install workflows.
package orchestrate

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/infrastructure/executor"
	"github.com/voidws/xcpilot/internal/ports"
	"github.com/voidws/xcpilot/internal/services/resolve"
	"github.com/voidws/xcpilot/internal/services/summarize"
)

// ResponseStore is the slice of the response cache the orchestrator writes.
type ResponseStore interface {
	Store(resp domain.CachedResponse) string
}

// PreferenceCache records build outcomes and serves preferred configs.
type PreferenceCache interface {
	PreferredBuildConfig(projectPath string) (domain.BuildConfig, bool)
	RecordBuildResult(ctx context.Context, projectPath string, cfg domain.BuildConfig, outcome domain.BuildOutcome)
}

// SimulatorCache tracks usage and picks install targets.
type SimulatorCache interface {
	RecordUsage(udid, projectPath string)
	BestSimulator(ctx context.Context, projectPath string) (domain.SimulatorDevice, bool)
	FindByUDID(ctx context.Context, udid string) (domain.SimulatorDevice, bool)
	Invalidate()
}

// DeviceController boots simulators and installs app bundles onto them.
type DeviceController interface {
	Boot(ctx context.Context, udid string) error
	Install(ctx context.Context, udid, appPath string) error
}

// DestinationResolver decides which -destination value a run gets.
type DestinationResolver interface {
	Resolve(ctx context.Context, req resolve.Request) resolve.Resolution
}

// Runner is the executor contract the orchestrator needs.
type Runner interface {
	Run(ctx context.Context, command string, opts executor.Options) (domain.ExecutionResult, error)
}

// Options configure a service instance from loaded settings.
type Options struct {
	XcodebuildPath string
	Timeout        time.Duration
	MaxOutputBytes int
	FatalPatterns  []executor.Pattern
}

// Service drives a full request through the pipeline and returns the compact
// response handed back to callers.
type Service struct {
	exec      Runner
	responses ResponseStore
	prefs     PreferenceCache
	sims      SimulatorCache
	devices   DeviceController
	resolver  DestinationResolver
	log       ports.Logger
	opts      Options

	now func() time.Time
}

func New(exec Runner, responses ResponseStore, prefs PreferenceCache, sims SimulatorCache, devices DeviceController, resolver DestinationResolver, log ports.Logger, opts Options) *Service {
	if opts.XcodebuildPath == "" {
		opts.XcodebuildPath = "xcodebuild"
	}
	return &Service{
		exec:      exec,
		responses: responses,
		prefs:     prefs,
		sims:      sims,
		devices:   devices,
		resolver:  resolver,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// BuildRequest carries the caller-supplied build arguments. Blank fields are
// filled from the project's cached preferred config before resolution.
type BuildRequest struct {
	ProjectPath     string
	Scheme          string
	Configuration   string
	Destination     string
	SDK             string
	DerivedDataPath string
	ExtraArgs       []string
}

// Intelligence describes which defaults were applied automatically so the
// caller can tell an explicit run from an assisted one.
type Intelligence struct {
	UsedPreferredConfig   bool           `json:"used_preferred_config"`
	UsedSmartDestination  bool           `json:"used_smart_destination"`
	DestinationSource     resolve.Source `json:"destination_source"`
	SimulatorAutoSelected bool           `json:"simulator_auto_selected,omitempty"`
	DeviceUDID            string         `json:"device_udid,omitempty"`
	DeviceName            string         `json:"device_name,omitempty"`
}

// BuildResult is the compact response for a build run: a handle to the full
// cached output plus the parsed summary.
type BuildResult struct {
	Handle       string
	Command      string
	Summary      domain.BuildSummary
	Execution    domain.ExecutionResult
	Intelligence Intelligence
}

// TestResult mirrors BuildResult for test runs.
type TestResult struct {
	Handle       string
	Command      string
	Summary      domain.TestSummary
	Execution    domain.ExecutionResult
	Intelligence Intelligence
}

// InstallResult reports where a built app bundle ended up.
type InstallResult struct {
	Build      BuildResult
	AppPath    string
	DeviceUDID string
	DeviceName string
	Installed  bool
}

// Build runs xcodebuild for the project and records the outcome. A failing
// build is a normal result, not an error; only spawn failures and output
// overruns surface as errors.
func (s *Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	return s.runBuild(ctx, "build", req)
}

// Test runs the project's test action and parses the xctest output.
func (s *Service) Test(ctx context.Context, req BuildRequest) (TestResult, error) {
	prefilled, usedPrefs := s.prefill(req)
	resolution := s.resolveDestination(ctx, prefilled)

	command := s.command("test", prefilled, resolution)
	exec, err := s.run(ctx, command, prefilled.ProjectPath)
	if err != nil {
		return TestResult{}, err
	}

	summary := summarize.Test(combinedOutput(exec), exec.ExitCode)
	intel := intelligence(usedPrefs, resolution)
	handle := s.storeResponse("test", command, exec, map[string]string{
		"project":                prefilled.ProjectPath,
		"scheme":                 prefilled.Scheme,
		"destination":            resolution.Destination,
		"duration_ms":            fmt.Sprintf("%d", exec.DurationMS),
		"test_count":             fmt.Sprintf("%d", summary.TestCount),
		"failure_count":          fmt.Sprintf("%d", summary.FailureCount),
		"used_smart_destination": fmt.Sprintf("%t", intel.UsedSmartDestination),
	})

	s.recordOutcome(ctx, prefilled, resolution, exec, summary.Success, summary.FailureCount, 0)

	return TestResult{
		Handle:       handle,
		Command:      command,
		Summary:      summary,
		Execution:    exec,
		Intelligence: intel,
	}, nil
}

// BuildAndInstall builds the project, locates the produced .app bundle under
// the derived-data products directory, and installs it on a simulator. The
// target is the resolved destination device when one was chosen, otherwise
// the best simulator for the project.
func (s *Service) BuildAndInstall(ctx context.Context, req BuildRequest) (InstallResult, error) {
	build, err := s.runBuild(ctx, "build", req)
	if err != nil {
		return InstallResult{}, err
	}
	result := InstallResult{Build: build}
	if !build.Summary.Success {
		return result, nil
	}

	appPath, err := findAppBundle(s.derivedDataPath(req))
	if err != nil {
		return result, fmt.Errorf("locate app bundle: %w", err)
	}
	result.AppPath = appPath

	device, auto, err := s.installTarget(ctx, req.ProjectPath, build.Intelligence)
	if err != nil {
		return result, err
	}
	result.DeviceUDID = device.UDID
	result.DeviceName = device.Name
	result.Build.Intelligence.SimulatorAutoSelected = auto
	result.Build.Intelligence.DeviceName = device.Name

	if err := s.devices.Boot(ctx, device.UDID); err != nil {
		return result, fmt.Errorf("boot simulator %s: %w", device.UDID, err)
	}
	if err := s.devices.Install(ctx, device.UDID, appPath); err != nil {
		return result, fmt.Errorf("install on %s: %w", device.UDID, err)
	}
	result.Installed = true
	s.sims.RecordUsage(device.UDID, req.ProjectPath)
	s.sims.Invalidate()
	return result, nil
}

func (s *Service) runBuild(ctx context.Context, action string, req BuildRequest) (BuildResult, error) {
	prefilled, usedPrefs := s.prefill(req)
	resolution := s.resolveDestination(ctx, prefilled)

	command := s.command(action, prefilled, resolution)
	exec, err := s.run(ctx, command, prefilled.ProjectPath)
	if err != nil {
		return BuildResult{}, err
	}

	summary := summarize.Build(combinedOutput(exec), exec.ExitCode, exec.FatalMatch)
	intel := intelligence(usedPrefs, resolution)
	handle := s.storeResponse(action, command, exec, map[string]string{
		"project":                prefilled.ProjectPath,
		"scheme":                 prefilled.Scheme,
		"configuration":          prefilled.Configuration,
		"destination":            resolution.Destination,
		"duration_ms":            fmt.Sprintf("%d", exec.DurationMS),
		"error_count":            fmt.Sprintf("%d", summary.ErrorCount),
		"warning_count":          fmt.Sprintf("%d", summary.WarningCount),
		"used_smart_destination": fmt.Sprintf("%t", intel.UsedSmartDestination),
	})

	s.recordOutcome(ctx, prefilled, resolution, exec, summary.Success, summary.ErrorCount, summary.WarningCount)

	return BuildResult{
		Handle:       handle,
		Command:      command,
		Summary:      summary,
		Execution:    exec,
		Intelligence: intel,
	}, nil
}

// prefill fills blank request fields from the cached preferred config.
// An explicit destination suppresses the cached one; the resolver applies
// its own precedence for destinations.
func (s *Service) prefill(req BuildRequest) (BuildRequest, bool) {
	cfg, ok := s.prefs.PreferredBuildConfig(req.ProjectPath)
	if !ok {
		return req, false
	}

	used := false
	if req.Scheme == "" && cfg.Scheme != "" {
		req.Scheme = cfg.Scheme
		used = true
	}
	if req.Configuration == "" && cfg.Configuration != "" {
		req.Configuration = cfg.Configuration
		used = true
	}
	if req.SDK == "" && cfg.SDK != "" {
		req.SDK = cfg.SDK
		used = true
	}
	if req.DerivedDataPath == "" && cfg.DerivedDataPath != "" {
		req.DerivedDataPath = cfg.DerivedDataPath
		used = true
	}
	return req, used
}

func (s *Service) resolveDestination(ctx context.Context, req BuildRequest) resolve.Resolution {
	return s.resolver.Resolve(ctx, resolve.Request{
		ProjectPath: req.ProjectPath,
		Destination: req.Destination,
		SDK:         req.SDK,
	})
}

func (s *Service) run(ctx context.Context, command, projectPath string) (domain.ExecutionResult, error) {
	return s.exec.Run(ctx, command, executor.Options{
		Dir:            workingDir(projectPath),
		Timeout:        s.opts.Timeout,
		MaxOutputBytes: s.opts.MaxOutputBytes,
		FatalPatterns:  s.opts.FatalPatterns,
	})
}

func (s *Service) storeResponse(tool, command string, exec domain.ExecutionResult, meta map[string]string) string {
	return s.responses.Store(domain.CachedResponse{
		Tool:     tool,
		Command:  command,
		Stdout:   exec.Stdout,
		Stderr:   exec.Stderr,
		ExitCode: exec.ExitCode,
		Metadata: meta,
	})
}

func (s *Service) recordOutcome(ctx context.Context, req BuildRequest, resolution resolve.Resolution, exec domain.ExecutionResult, success bool, errorCount, warningCount int) {
	usedCfg := domain.BuildConfig{
		Scheme:          req.Scheme,
		Configuration:   req.Configuration,
		Destination:     resolution.Destination,
		SDK:             req.SDK,
		DerivedDataPath: req.DerivedDataPath,
	}
	outcome := domain.BuildOutcome{
		Timestamp:    s.now(),
		Success:      success,
		DurationMS:   exec.DurationMS,
		ErrorCount:   errorCount,
		WarningCount: warningCount,
		OutputBytes:  len(exec.Stdout) + len(exec.Stderr),
		DeviceUDID:   resolution.DeviceUDID,
		DeviceName:   resolution.DeviceName,
	}
	s.prefs.RecordBuildResult(ctx, req.ProjectPath, usedCfg, outcome)

	if success && resolution.DeviceUDID != "" {
		s.sims.RecordUsage(resolution.DeviceUDID, req.ProjectPath)
	}
}

// installTarget picks the device for an install: the device the resolver
// already chose, else the best simulator for the project.
func (s *Service) installTarget(ctx context.Context, projectPath string, intel Intelligence) (domain.SimulatorDevice, bool, error) {
	if intel.DeviceUDID != "" {
		if dev, ok := s.sims.FindByUDID(ctx, intel.DeviceUDID); ok {
			return dev, false, nil
		}
	}
	best, ok := s.sims.BestSimulator(ctx, projectPath)
	if !ok {
		return domain.SimulatorDevice{}, false, fmt.Errorf("no available simulator to install on")
	}
	return best, true, nil
}

// command assembles the xcodebuild invocation. Workspace and project
// containers are passed explicitly; a bare directory relies on xcodebuild's
// own discovery in the working directory.
func (s *Service) command(action string, req BuildRequest, resolution resolve.Resolution) string {
	args := []string{s.opts.XcodebuildPath}

	switch {
	case strings.HasSuffix(req.ProjectPath, ".xcworkspace"):
		args = append(args, "-workspace", shellQuote(req.ProjectPath))
	case strings.HasSuffix(req.ProjectPath, ".xcodeproj"):
		args = append(args, "-project", shellQuote(req.ProjectPath))
	}
	if req.Scheme != "" {
		args = append(args, "-scheme", shellQuote(req.Scheme))
	}
	if req.Configuration != "" {
		args = append(args, "-configuration", shellQuote(req.Configuration))
	}
	if req.SDK != "" {
		args = append(args, "-sdk", shellQuote(req.SDK))
	}
	if resolution.Destination != "" {
		args = append(args, "-destination", shellQuote(resolution.Destination))
	}
	if req.DerivedDataPath != "" {
		args = append(args, "-derivedDataPath", shellQuote(req.DerivedDataPath))
	}
	for _, extra := range req.ExtraArgs {
		args = append(args, shellQuote(extra))
	}
	args = append(args, action)
	return strings.Join(args, " ")
}

func (s *Service) derivedDataPath(req BuildRequest) string {
	if req.DerivedDataPath != "" {
		return req.DerivedDataPath
	}
	if cfg, ok := s.prefs.PreferredBuildConfig(req.ProjectPath); ok && cfg.DerivedDataPath != "" {
		return cfg.DerivedDataPath
	}
	return filepath.Join(workingDir(req.ProjectPath), "build")
}

func workingDir(projectPath string) string {
	if strings.HasSuffix(projectPath, ".xcworkspace") || strings.HasSuffix(projectPath, ".xcodeproj") {
		return filepath.Dir(projectPath)
	}
	return projectPath
}

func intelligence(usedPrefs bool, resolution resolve.Resolution) Intelligence {
	return Intelligence{
		UsedPreferredConfig:  usedPrefs,
		UsedSmartDestination: resolution.UsedSmartDestination(),
		DestinationSource:    resolution.Source,
		DeviceUDID:           resolution.DeviceUDID,
		DeviceName:           resolution.DeviceName,
	}
}

func combinedOutput(exec domain.ExecutionResult) string {
	if exec.Stderr == "" {
		return exec.Stdout
	}
	if exec.Stdout == "" {
		return exec.Stderr
	}
	return exec.Stdout + "\n" + exec.Stderr
}

// findAppBundle returns the newest .app directory under the derived-data
// products tree, preferring simulator product directories.
func findAppBundle(derivedDataPath string) (string, error) {
	products := filepath.Join(derivedDataPath, "Build", "Products")

	var simApps, otherApps []string
	err := filepath.WalkDir(products, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || !strings.HasSuffix(d.Name(), ".app") {
			return nil
		}
		if strings.Contains(filepath.Base(filepath.Dir(path)), "simulator") {
			simApps = append(simApps, path)
		} else {
			otherApps = append(otherApps, path)
		}
		return fs.SkipDir
	})
	if err != nil {
		return "", err
	}

	if len(simApps) > 0 {
		return simApps[0], nil
	}
	if len(otherApps) > 0 {
		return otherApps[0], nil
	}
	return "", fmt.Errorf("no .app bundle under %s", products)
}

// shellQuote single-quotes an argument for the shell command line.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t'\"$&|;<>()*?[]#~%!{}\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
