package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "tiles.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSeed(name string) tilemap.Seed {
	return tilemap.Seed{
		Name:       name,
		Width:      3,
		Height:     2,
		TileWidth:  32,
		TileHeight: 16,
		Cells:      [][]int{{0, 1, -1}, {7, -1, 1234567}},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSeed(ctx, testSeed("prontera")); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}

	got, err := s.LoadSeed(ctx, "prontera")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}

	want := testSeed("prontera")
	if got.Width != want.Width || got.Height != want.Height || got.TileWidth != 32 || got.TileHeight != 16 {
		t.Errorf("unexpected header: %+v", got)
	}
	for y := range want.Cells {
		for x := range want.Cells[y] {
			if got.Cells[y][x] != want.Cells[y][x] {
				t.Errorf("(%d,%d): expected %d, got %d", x, y, want.Cells[y][x], got.Cells[y][x])
			}
		}
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSeed(ctx, testSeed("field")); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}
	updated := tilemap.Seed{Name: "field", Width: 1, Height: 1, Cells: [][]int{{9}}}
	if err := s.SaveSeed(ctx, updated); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}

	got, err := s.LoadSeed(ctx, "field")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if got.Width != 1 || got.Cells[0][0] != 9 {
		t.Errorf("expected replaced seed, got %+v", got)
	}
}

func TestStore_EmptySeedStoresEmptyCells(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSeed(ctx, tilemap.Seed{Name: "blank", Width: 2, Height: 2}); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}
	got, err := s.LoadSeed(ctx, "blank")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if got.Cells[1][1] != -1 {
		t.Errorf("expected empty cell, got %d", got.Cells[1][1])
	}
}

func TestStore_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadSeed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSeed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveSeed(ctx, testSeed("")); !errors.Is(err, ErrNoName) {
		t.Errorf("expected ErrNoName, got %v", err)
	}
	bad := testSeed("bad")
	bad.Cells = bad.Cells[:1]
	if err := s.SaveSeed(ctx, bad); !errors.Is(err, tilemap.ErrSeedMismatch) {
		t.Errorf("expected ErrSeedMismatch, got %v", err)
	}
}

func TestStore_ListDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"payon", "alberta", "geffen"} {
		if err := s.SaveSeed(ctx, testSeed(name)); err != nil {
			t.Fatalf("SaveSeed(%s) failed: %v", name, err)
		}
	}

	infos, err := s.ListSeeds(ctx)
	if err != nil {
		t.Fatalf("ListSeeds failed: %v", err)
	}
	if len(infos) != 3 || infos[0].Name != "alberta" || infos[2].Name != "payon" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
	if infos[1].Width != 3 || infos[1].TileHeight != 16 {
		t.Errorf("unexpected info: %+v", infos[1])
	}

	if err := s.DeleteSeed(ctx, "geffen"); err != nil {
		t.Fatalf("DeleteSeed failed: %v", err)
	}
	infos, _ = s.ListSeeds(ctx)
	if len(infos) != 2 {
		t.Errorf("expected 2 seeds after delete, got %d", len(infos))
	}
}

func TestStore_RoundTripThroughLayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	l, err := tilemap.NewLayer(testSeed("izlude"))
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}
	l.SetCell(1, 1, 42)
	l.ClearCell(0, 0)

	if err := s.SaveSeed(ctx, l.Seed()); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}
	seed, err := s.LoadSeed(ctx, "izlude")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	restored, err := tilemap.NewLayer(seed)
	if err != nil {
		t.Fatalf("NewLayer failed: %v", err)
	}

	if restored.HasCell(0, 0) || restored.TileRef(1, 1).Index() != 42 {
		t.Error("layer edits were not persisted")
	}
}

func TestStore_IndexRange(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("indexes above 32 bits need a 64-bit int")
	}
	s := openTestStore(t)
	ctx := context.Background()

	wide := int64(math.MaxInt32) + 6
	seed := tilemap.Seed{Name: "gids", Width: 2, Height: 1, Cells: [][]int{{1, int(wide)}}}
	if err := s.SaveSeed(ctx, seed); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("expected ErrIndexRange, got %v", err)
	}
	if _, err := s.LoadSeed(ctx, "gids"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rejected seed should not be stored, got %v", err)
	}

	seed.Cells[0][1] = math.MaxInt32
	seed.Cells[0][0] = -7
	if err := s.SaveSeed(ctx, seed); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}
	got, err := s.LoadSeed(ctx, "gids")
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if got.Cells[0][1] != math.MaxInt32 || got.Cells[0][0] != -1 {
		t.Errorf("unexpected cells: %v", got.Cells)
	}
}
