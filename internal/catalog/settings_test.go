package catalog

import (
	"context"
	"testing"
)

func TestSettingsUpsert(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetSetting(ctx, "volume", "0.8"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	value, found, err := store.GetSetting(ctx, "volume")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if !found || value != "0.8" {
		t.Errorf("Got (%q, %v), want (%q, true)", value, found, "0.8")
	}

	// Second write overwrites in place.
	if err := store.SetSetting(ctx, "volume", "0.5"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	value, found, err = store.GetSetting(ctx, "volume")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if !found || value != "0.5" {
		t.Errorf("Got (%q, %v), want (%q, true)", value, found, "0.5")
	}

	var count int
	if err := store.db.QueryRow(
		"SELECT COUNT(*) FROM settings WHERE name = 'volume'").Scan(&count); err != nil {
		t.Fatalf("Failed to count settings rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Upsert duplicated the row: %d", count)
	}
}

func TestGetSettingMissingKey(t *testing.T) {
	store, _ := setupTestStore(t)

	value, found, err := store.GetSetting(context.Background(), "absent")
	if err != nil {
		t.Errorf("Missing key should not be an error: %v", err)
	}
	if found || value != "" {
		t.Errorf("Got (%q, %v), want (\"\", false)", value, found)
	}
}

func TestSetSettingEmptyValue(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetSetting(ctx, "note", ""); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	value, found, err := store.GetSetting(ctx, "note")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if !found || value != "" {
		t.Errorf("Empty value should round-trip: (%q, %v)", value, found)
	}
}
