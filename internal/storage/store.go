package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/phasespace/internal/beam"
	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/separatrix"
)

const (
	metadataFile = "metadata.json"
	cloudFile    = "cloud.msgpack"
)

var ErrIncomplete = errors.New("storage: analysis has no search or cloud")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the human-readable summary of one characterization.
type RunMetadata struct {
	ID         string               `json:"id"`
	Preset     string               `json:"preset,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
	Lattice    config.LatticeConfig `json:"lattice"`
	Search     separatrix.Config    `json:"search"`
	Twiss      beam.Twiss           `json:"twiss"`
	Bracket    separatrix.Bracket   `json:"bracket"`
	Iterations int                  `json:"iterations"`
	Slope      separatrix.Slope     `json:"slope"`
	Result     separatrix.Result    `json:"result"`
	Steps      []separatrix.Step    `json:"steps,omitempty"`
}

// Cloud is the bulk tracking data of a run, stored as msgpack.
type Cloud struct {
	Offsets     []float64              `msgpack:"offsets"`
	X           [][]float64            `msgpack:"x"`
	Px          [][]float64            `msgpack:"px"`
	XNorm       [][]float64            `msgpack:"x_norm"`
	PxNorm      [][]float64            `msgpack:"px_norm"`
	State       [][]int                `msgpack:"state"`
	Separatrix  separatrix.Trajectory  `msgpack:"separatrix"`
	Boundary    separatrix.Trajectory  `msgpack:"boundary"`
	FixedPoints separatrix.FixedPoints `msgpack:"fixed_points"`
	Slope       separatrix.Slope       `msgpack:"slope"`
	SeptumX     float64                `msgpack:"septum_x"`
}

// Points returns every alive cloud sample, physical or normalized.
func (c *Cloud) Points(normalized bool) (xs, ps []float64) {
	x, p := c.X, c.Px
	if normalized {
		x, p = c.XNorm, c.PxNorm
	}
	for i := range x {
		for t := range x[i] {
			if c.State[i][t] <= 0 {
				continue
			}
			xs = append(xs, x[i][t])
			ps = append(ps, p[i][t])
		}
	}
	return xs, ps
}

func NewCloud(a *separatrix.Analysis) *Cloud {
	return &Cloud{
		Offsets:     a.Cloud.Offsets,
		X:           a.Cloud.Record.X,
		Px:          a.Cloud.Record.Px,
		XNorm:       a.Cloud.Normalized.XNorm,
		PxNorm:      a.Cloud.Normalized.PxNorm,
		State:       a.Cloud.Record.State,
		Separatrix:  a.Separatrix,
		Boundary:    a.Boundary,
		FixedPoints: a.FixedPoints,
		Slope:       a.Slope,
		SeptumX:     a.Config.SeptumX,
	}
}

func NewMetadata(id, preset string, lat config.LatticeConfig, a *separatrix.Analysis) RunMetadata {
	return RunMetadata{
		ID:         id,
		Preset:     preset,
		Timestamp:  time.Now().UTC(),
		Lattice:    lat,
		Search:     a.Config,
		Twiss:      a.Twiss,
		Bracket:    a.Search.Bracket,
		Iterations: len(a.Search.Steps),
		Slope:      a.Slope,
		Result:     a.Result,
		Steps:      a.Search.Steps,
	}
}

// Save writes a run directory named by a fresh UUID. A run that cannot be
// written completely is removed again.
func (s *Store) Save(preset string, cfg *config.Config, a *separatrix.Analysis) (string, error) {
	if a.Search == nil || a.Cloud == nil {
		return "", ErrIncomplete
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, preset, cfg.Lattice, a)
	err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("storage: encode metadata: %w", err)
		}
		return nil
	})
	if err == nil {
		err = writeFile(filepath.Join(runDir, cloudFile), func(w io.Writer) error {
			if err := msgpack.NewEncoder(w).Encode(NewCloud(a)); err != nil {
				return fmt.Errorf("storage: encode cloud: %w", err)
			}
			return nil
		})
	}
	if err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

// writeFile creates path, encodes into it and reports the close error.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first. Directories without
// valid metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadCloud(runID string) (*Cloud, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, cloudFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c Cloud
	if err := msgpack.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("storage: decode cloud %s: %w", runID, err)
	}
	return &c, nil
}
