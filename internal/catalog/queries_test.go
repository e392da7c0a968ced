package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// seedCatalog reconciles n files named file00.mp4..fileNN.mp4 with
// strictly increasing creation times.
func seedCatalog(t testing.TB, store *Store, n int) {
	t.Helper()

	files := make([]DiskFile, 0, n)
	for i := 0; i < n; i++ {
		df := testDiskFile(fmt.Sprintf("file%02d.mp4", i))
		df.CreatedMS = 1700000000000 + int64(i)*1000
		df.ModTime = time.Unix(1700000000+int64(i), 0)
		files = append(files, df)
	}
	if _, err := store.Reconcile(files); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
}

func pagePaths(page *Page) []string {
	paths := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		paths = append(paths, item.Path)
	}
	return paths
}

func TestQuerySortByName(t *testing.T) {
	store, _ := setupTestStore(t)

	if _, err := store.Reconcile([]DiskFile{
		testDiskFile("zebra.mp4"),
		testDiskFile("Apple.mp4"),
		testDiskFile("mango.mp4"),
	}); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	page, err := store.Query(QueryOptions{Sort: SortName})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	// Case-insensitive: Apple before mango before zebra.
	want := []string{"Apple.mp4", "mango.mp4", "zebra.mp4"}
	got := pagePaths(page)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQuerySortByCreatedNewestFirst(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 3)

	page, err := store.Query(QueryOptions{Sort: SortCreated})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	want := []string{"file02.mp4", "file01.mp4", "file00.mp4"}
	got := pagePaths(page)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQueryRandomIsDeterministicPerSeed(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 10)

	first, err := store.Query(QueryOptions{Sort: SortRandom, Seed: 12345})
	if err != nil {
		t.Fatalf("First query failed: %v", err)
	}
	second, err := store.Query(QueryOptions{Sort: SortRandom, Seed: 12345})
	if err != nil {
		t.Fatalf("Second query failed: %v", err)
	}

	a, b := pagePaths(first), pagePaths(second)
	if len(a) != len(b) {
		t.Fatalf("Result sizes differ: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Same seed produced different orders at %d: %q != %q", i, a[i], b[i])
		}
	}
}

func TestQueryRandomPaginationIsConsistent(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 9)

	full, err := store.Query(QueryOptions{Sort: SortRandom, Seed: 987654321})
	if err != nil {
		t.Fatalf("Full query failed: %v", err)
	}
	if full.Total != 9 {
		t.Fatalf("Expected total 9, got %d", full.Total)
	}

	// Stitching consecutive pages must reproduce the full order exactly.
	var stitched []string
	for offset := 0; offset < 9; offset += 3 {
		page, err := store.Query(QueryOptions{
			Sort: SortRandom, Seed: 987654321, Limit: 3, Offset: offset,
		})
		if err != nil {
			t.Fatalf("Page query at offset %d failed: %v", offset, err)
		}
		if page.Total != 9 {
			t.Errorf("Page at offset %d reported total %d, want 9", offset, page.Total)
		}
		stitched = append(stitched, pagePaths(page)...)
	}

	fullPaths := pagePaths(full)
	for i := range fullPaths {
		if stitched[i] != fullPaths[i] {
			t.Errorf("Stitched page order diverges at %d: %q != %q",
				i, stitched[i], fullPaths[i])
		}
	}
}

func TestQueryMinRatingInclusive(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 4)
	ctx := context.Background()

	ratings := map[int64]int{1: 1, 2: 3, 3: 5, 4: 0}
	for id, rating := range ratings {
		if err := store.SetRating(ctx, id, rating); err != nil {
			t.Fatalf("SetRating(%d) failed: %v", id, err)
		}
	}

	tests := []struct {
		minRating int
		wantTotal int
	}{
		{0, 4}, // no filter
		{1, 3},
		{3, 2}, // boundary is inclusive
		{5, 1},
	}

	for _, tt := range tests {
		page, err := store.Query(QueryOptions{MinRating: tt.minRating})
		if err != nil {
			t.Fatalf("Query(minRating=%d) failed: %v", tt.minRating, err)
		}
		if page.Total != tt.wantTotal {
			t.Errorf("minRating=%d: got total %d, want %d",
				tt.minRating, page.Total, tt.wantTotal)
		}
		if len(page.Items) != tt.wantTotal {
			t.Errorf("minRating=%d: got %d items, want %d",
				tt.minRating, len(page.Items), tt.wantTotal)
		}
	}
}

func TestQueryTagFilterANDSemantics(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 3)
	ctx := context.Background()

	// file 1: rock; file 2: rock+live; file 3: live
	for _, assoc := range []struct {
		fileID int64
		tag    string
	}{
		{1, "rock"}, {2, "rock"}, {2, "live"}, {3, "live"},
	} {
		if _, err := store.ToggleTag(ctx, assoc.fileID, assoc.tag); err != nil {
			t.Fatalf("ToggleTag(%d, %s) failed: %v", assoc.fileID, assoc.tag, err)
		}
	}

	tests := []struct {
		name      string
		tags      []string
		wantTotal int
	}{
		{"single tag", []string{"rock"}, 2},
		{"both tags required", []string{"rock", "live"}, 1},
		{"unknown tag", []string{"jazz"}, 0},
		{"known plus unknown", []string{"rock", "jazz"}, 0},
		{"blank tags ignored", []string{" ", "rock", ""}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.Query(QueryOptions{Tags: tt.tags})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("Got total %d, want %d", page.Total, tt.wantTotal)
			}
		})
	}
}

func TestQueryTagIdentityIsCaseSensitive(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 2)
	ctx := context.Background()

	if _, err := store.ToggleTag(ctx, 1, "Rock"); err != nil {
		t.Fatalf("ToggleTag failed: %v", err)
	}
	if _, err := store.ToggleTag(ctx, 2, "rock"); err != nil {
		t.Fatalf("ToggleTag failed: %v", err)
	}

	page, err := store.Query(QueryOptions{Tags: []string{"Rock"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != 1 {
		t.Errorf("Tag match should be case-sensitive: %+v", page)
	}
}

func TestQueryPagination(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 7)

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantItems int
	}{
		{"limit zero returns everything", 0, 0, 7},
		{"first page", 3, 0, 3},
		{"middle page", 3, 3, 3},
		{"short last page", 3, 6, 1},
		{"offset beyond end", 3, 100, 0},
		{"offset without limit", 0, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.Query(QueryOptions{
				Sort: SortName, Limit: tt.limit, Offset: tt.offset,
			})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("Got %d items, want %d", len(page.Items), tt.wantItems)
			}
			// Total always reflects the whole filtered set.
			if page.Total != 7 {
				t.Errorf("Got total %d, want 7", page.Total)
			}
		})
	}
}

func TestQueryCombinedFilters(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 5)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		if _, err := store.ToggleTag(ctx, id, "keeper"); err != nil {
			t.Fatalf("ToggleTag failed: %v", err)
		}
	}
	if err := store.SetRating(ctx, 2, 4); err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}
	if err := store.SetRating(ctx, 3, 2); err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}
	if err := store.SetRating(ctx, 5, 5); err != nil {
		t.Fatalf("SetRating failed: %v", err)
	}

	// Tagged AND rated >= 3: only file 2 qualifies.
	page, err := store.Query(QueryOptions{
		Tags: []string{"keeper"}, MinRating: 3,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != 2 {
		t.Errorf("Combined filter mismatch: %+v", page)
	}
}

func TestQueryEmptyCatalog(t *testing.T) {
	store, _ := setupTestStore(t)

	page, err := store.Query(QueryOptions{Sort: SortRandom, Seed: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("Empty catalog should yield an empty page: %+v", page)
	}
	if page.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestQueryIncludesTags(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 1)
	ctx := context.Background()

	for _, name := range []string{"beta", "Alpha"} {
		if _, err := store.ToggleTag(ctx, 1, name); err != nil {
			t.Fatalf("ToggleTag failed: %v", err)
		}
	}

	page, err := store.Query(QueryOptions{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	tags := page.Items[0].Tags
	if len(tags) != 2 || tags[0] != "Alpha" || tags[1] != "beta" {
		t.Errorf("Expected display-ordered tags [Alpha beta], got %v", tags)
	}
}

func TestQuerySurfacesTagLoadFailure(t *testing.T) {
	store, _ := setupTestStore(t)
	seedCatalog(t, store, 1)

	// Break the tag relation; the query must fail loudly rather than hand
	// back items with silently empty tag sets.
	if _, err := store.db.Exec("DROP TABLE file_tags"); err != nil {
		t.Fatalf("Failed to drop file_tags: %v", err)
	}

	if _, err := store.Query(QueryOptions{}); err == nil {
		t.Error("Query should propagate the tag load failure")
	}
	if _, err := store.GetFileByID(context.Background(), 1); err == nil {
		t.Error("GetFileByID should propagate the tag load failure")
	}
}

func TestGetFileByIDUnknown(t *testing.T) {
	store, _ := setupTestStore(t)

	if _, err := store.GetFileByID(context.Background(), 999); err == nil {
		t.Error("Expected an error for an unknown file id")
	}
}

func TestClampRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{-1, 0}, {0, 0}, {3, 3}, {5, 5}, {6, 5}, {100, 5},
	}
	for _, tt := range tests {
		if got := clampRating(tt.in); got != tt.want {
			t.Errorf("clampRating(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
