// Package store persists layer seeds in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

// Store errors.
var (
	ErrNotFound   = errors.New("seed not found")
	ErrNoName     = errors.New("seed has no name")
	ErrIndexRange = errors.New("tile index does not fit in 32 bits")
)

// SeedInfo describes a stored seed without its cells.
type SeedInfo struct {
	Name       string
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
	UpdatedAt  time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Store wraps the SQLite connection.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s.log.Debug("seed store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS seeds (
		name TEXT PRIMARY KEY,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tile_width INTEGER NOT NULL DEFAULT 0,
		tile_height INTEGER NOT NULL DEFAULT 0,
		cells BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// SaveSeed inserts or replaces a seed by name.
func (s *Store) SaveSeed(ctx context.Context, seed tilemap.Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	if seed.Name == "" {
		return ErrNoName
	}

	cells, err := encodeCells(seed)
	if err != nil {
		return fmt.Errorf("saving seed %q: %w", seed.Name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO seeds (name, width, height, tile_width, tile_height, cells, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			tile_width = excluded.tile_width,
			tile_height = excluded.tile_height,
			cells = excluded.cells,
			updated_at = excluded.updated_at`,
		seed.Name, seed.Width, seed.Height, seed.TileWidth, seed.TileHeight,
		cells, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving seed %q: %w", seed.Name, err)
	}

	s.log.Info("seed saved",
		zap.String("name", seed.Name),
		zap.Int("width", seed.Width),
		zap.Int("height", seed.Height))
	return nil
}

// LoadSeed returns the seed stored under name.
func (s *Store) LoadSeed(ctx context.Context, name string) (tilemap.Seed, error) {
	seed := tilemap.Seed{Name: name}
	var blob []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT width, height, tile_width, tile_height, cells FROM seeds WHERE name = ?`, name,
	).Scan(&seed.Width, &seed.Height, &seed.TileWidth, &seed.TileHeight, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return tilemap.Seed{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return tilemap.Seed{}, fmt.Errorf("loading seed %q: %w", name, err)
	}

	cells, err := decodeCells(blob, seed.Width, seed.Height)
	if err != nil {
		return tilemap.Seed{}, fmt.Errorf("loading seed %q: %w", name, err)
	}
	seed.Cells = cells
	return seed, nil
}

// ListSeeds returns all stored seeds ordered by name.
func (s *Store) ListSeeds(ctx context.Context) ([]SeedInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, width, height, tile_width, tile_height, updated_at FROM seeds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	defer rows.Close()

	var out []SeedInfo
	for rows.Next() {
		var info SeedInfo
		if err := rows.Scan(&info.Name, &info.Width, &info.Height, &info.TileWidth, &info.TileHeight, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("listing seeds: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSeed removes a seed. Deleting a missing seed returns ErrNotFound.
func (s *Store) DeleteSeed(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM seeds WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting seed %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting seed %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	s.log.Info("seed deleted", zap.String("name", name))
	return nil
}

// encodeCells packs the grid as little-endian int32, row-major. Negative
// indexes are stored as -1; indexes above math.MaxInt32 are rejected.
func encodeCells(seed tilemap.Seed) ([]byte, error) {
	buf := make([]byte, 0, seed.Width*seed.Height*4)
	for y := 0; y < seed.Height; y++ {
		for x := 0; x < seed.Width; x++ {
			v := -1
			if seed.Cells != nil && seed.Cells[y][x] >= 0 {
				v = seed.Cells[y][x]
			}
			if v > math.MaxInt32 {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrIndexRange, v, x, y)
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))
		}
	}
	return buf, nil
}

func decodeCells(blob []byte, width, height int) ([][]int, error) {
	if len(blob) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", tilemap.ErrSeedMismatch, len(blob), width, height)
	}
	cells := make([][]int, height)
	for y := range cells {
		row := make([]int, width)
		for x := range row {
			off := (y*width + x) * 4
			row[x] = int(int32(binary.LittleEndian.Uint32(blob[off:])))
		}
		cells[y] = row
	}
	return cells, nil
}
