package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/persisttest"
	"github.com/voidws/xcpilot/internal/pkg/logger"
	"github.com/voidws/xcpilot/internal/ports"
)

func newTestCache(t *testing.T, store *persisttest.MemStore, settings *stubSettings, outcomes *stubOutcomes, opts Options) *Cache {
	t.Helper()
	if store == nil {
		store = persisttest.NewMemStore(false)
	}
	// Typed nil pointers must not reach the interface fields.
	var settingsPort ports.ProjectSettingsStore
	if settings != nil {
		settingsPort = settings
	}
	var outcomesPort ports.OutcomeStore
	if outcomes != nil {
		outcomesPort = outcomes
	}
	c := New(store, settingsPort, outcomesPort, logger.NewStd(false), opts)
	<-c.Ready()
	t.Cleanup(c.Close)
	return c
}

func TestSuccessReplacesPreferredConfig(t *testing.T) {
	cache := newTestCache(t, nil, nil, nil, Options{})
	ctx := context.Background()

	first := domain.BuildConfig{Scheme: "App", Configuration: "Debug"}
	cache.RecordBuildResult(ctx, "/proj", first, domain.BuildOutcome{Success: true})

	second := domain.BuildConfig{Scheme: "App", Configuration: "Release"}
	cache.RecordBuildResult(ctx, "/proj", second, domain.BuildOutcome{Success: true})

	got, ok := cache.PreferredBuildConfig("/proj")
	if !ok {
		t.Fatal("expected a preferred config")
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("preferred config mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureKeepsPreviousPreferred(t *testing.T) {
	cache := newTestCache(t, nil, nil, nil, Options{})
	ctx := context.Background()

	working := domain.BuildConfig{Scheme: "App", Configuration: "Debug"}
	cache.RecordBuildResult(ctx, "/proj", working, domain.BuildOutcome{Success: true})

	broken := domain.BuildConfig{Scheme: "App", Configuration: "Broken"}
	cache.RecordBuildResult(ctx, "/proj", broken, domain.BuildOutcome{Success: false})

	got, ok := cache.PreferredBuildConfig("/proj")
	if !ok {
		t.Fatal("expected a preferred config")
	}
	if diff := cmp.Diff(working, got); diff != "" {
		t.Fatalf("failure must not replace preferred (-want +got):\n%s", diff)
	}

	if len(cache.History("/proj")) != 2 {
		t.Fatalf("expected both outcomes in history, got %d", len(cache.History("/proj")))
	}
}

func TestHistoryKeepsLastN(t *testing.T) {
	cache := newTestCache(t, nil, nil, nil, Options{HistoryLimit: 3})
	ctx := context.Background()

	cfg := domain.BuildConfig{Scheme: "App"}
	for i := 0; i < 5; i++ {
		cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{DurationMS: int64(i)})
	}

	history := cache.History("/proj")
	if len(history) != 3 {
		t.Fatalf("expected 3 retained outcomes, got %d", len(history))
	}
	if history[0].DurationMS != 2 || history[2].DurationMS != 4 {
		t.Fatalf("expected last three outcomes, got %+v", history)
	}
}

func TestSuccessRecordsProjectSettings(t *testing.T) {
	settings := &stubSettings{}
	cache := newTestCache(t, nil, settings, nil, Options{})
	ctx := context.Background()

	cfg := domain.BuildConfig{Scheme: "App"}
	cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{
		Success:    true,
		DeviceUDID: "UDID-1",
		DeviceName: "iPhone 15",
	})
	if settings.calls != 1 || settings.lastUDID != "UDID-1" {
		t.Fatalf("expected a settings record for UDID-1, got %+v", settings)
	}

	// No device, no settings write.
	cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{Success: true})
	if settings.calls != 1 {
		t.Fatalf("expected no settings record without a device, got %d calls", settings.calls)
	}

	// Failures never touch settings.
	cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{Success: false, DeviceUDID: "UDID-1"})
	if settings.calls != 1 {
		t.Fatalf("expected no settings record on failure, got %d calls", settings.calls)
	}
}

func TestCollaboratorFailureDoesNotRollBack(t *testing.T) {
	settings := &stubSettings{err: errors.New("disk full")}
	outcomes := &stubOutcomes{err: errors.New("db locked")}
	cache := newTestCache(t, nil, settings, outcomes, Options{})

	cfg := domain.BuildConfig{Scheme: "App"}
	cache.RecordBuildResult(context.Background(), "/proj", cfg, domain.BuildOutcome{
		Success:    true,
		DeviceUDID: "UDID-1",
	})

	if _, ok := cache.PreferredBuildConfig("/proj"); !ok {
		t.Fatal("in-memory record must survive collaborator failures")
	}
}

func TestOutcomeRecordedForEveryBuild(t *testing.T) {
	outcomes := &stubOutcomes{}
	cache := newTestCache(t, nil, nil, outcomes, Options{})
	ctx := context.Background()

	cfg := domain.BuildConfig{Scheme: "App", Configuration: "Debug", Destination: "platform=iOS Simulator,id=X"}
	cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{Success: true, DurationMS: 1200})
	cache.RecordBuildResult(ctx, "/proj", cfg, domain.BuildOutcome{Success: false, ErrorCount: 3})

	if len(outcomes.records) != 2 {
		t.Fatalf("expected 2 outcome records, got %d", len(outcomes.records))
	}
	if outcomes.records[0].Scheme != "App" || !outcomes.records[0].Success {
		t.Fatalf("unexpected first record %+v", outcomes.records[0])
	}
	if outcomes.records[1].ErrorCount != 3 || outcomes.records[1].Success {
		t.Fatalf("unexpected second record %+v", outcomes.records[1])
	}
}

func TestPersistRoundTrip(t *testing.T) {
	store := persisttest.NewMemStore(true)

	first := newTestCache(t, store, nil, nil, Options{})
	cfg := domain.BuildConfig{Scheme: "App", Configuration: "Debug"}
	first.RecordBuildResult(context.Background(), "/proj", cfg, domain.BuildOutcome{Success: true})
	first.Flush()

	second := newTestCache(t, store, nil, nil, Options{})
	got, ok := second.PreferredBuildConfig("/proj")
	if !ok {
		t.Fatal("expected preferred config to survive restart")
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("restored config mismatch (-want +got):\n%s", diff)
	}
}

type stubSettings struct {
	calls    int
	lastUDID string
	err      error
}

func (s *stubSettings) RecordSuccessfulBuild(_ context.Context, _, deviceUDID, _ string) error {
	s.calls++
	s.lastUDID = deviceUDID
	return s.err
}

type stubOutcomes struct {
	records []domain.BuildRecord
	err     error
}

func (s *stubOutcomes) Save(record domain.BuildRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *stubOutcomes) Records(int, string) ([]domain.BuildRecord, error) { return s.records, nil }
func (s *stubOutcomes) Clear() error                                      { s.records = nil; return nil }
