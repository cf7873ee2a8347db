package persist

import (
	"context"
	"testing"
)

func TestSettingsStoreRecordAndLookup(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	err := store.RecordSuccessfulBuild(context.Background(), "/work/App", "UDID-1", "iPhone 15")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	udid, name, ok := store.Lookup("/work/App")
	if !ok {
		t.Fatal("expected setting to be found")
	}
	if udid != "UDID-1" {
		t.Errorf("expected UDID-1, got %q", udid)
	}
	if name != "iPhone 15" {
		t.Errorf("expected iPhone 15, got %q", name)
	}
}

func TestSettingsStoreLookupUnknownProject(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	if _, _, ok := store.Lookup("/work/Other"); ok {
		t.Error("expected unknown project to report not found")
	}
}

func TestSettingsStoreLatestBuildWins(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	ctx := context.Background()
	if err := store.RecordSuccessfulBuild(ctx, "/work/App", "UDID-1", "iPhone 15"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.RecordSuccessfulBuild(ctx, "/work/App", "UDID-2", "iPhone 15 Pro"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	udid, name, ok := store.Lookup("/work/App")
	if !ok {
		t.Fatal("expected setting to be found")
	}
	if udid != "UDID-2" || name != "iPhone 15 Pro" {
		t.Errorf("expected latest build to win, got %q/%q", udid, name)
	}
}

func TestSettingsStoreKeepsProjectsSeparate(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	ctx := context.Background()
	if err := store.RecordSuccessfulBuild(ctx, "/work/App", "UDID-1", "iPhone 15"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.RecordSuccessfulBuild(ctx, "/work/Widget", "UDID-9", "Apple TV"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	udid, _, ok := store.Lookup("/work/App")
	if !ok || udid != "UDID-1" {
		t.Errorf("expected /work/App to keep UDID-1, got %q (found=%v)", udid, ok)
	}
	udid, _, ok = store.Lookup("/work/Widget")
	if !ok || udid != "UDID-9" {
		t.Errorf("expected /work/Widget to keep UDID-9, got %q (found=%v)", udid, ok)
	}
}
