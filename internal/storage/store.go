package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/plasmakit/wallsim/internal/diag"
	"github.com/plasmakit/wallsim/internal/dynamo"
	"github.com/plasmakit/wallsim/internal/physics"
)

// Store persists runs under a base directory, one subdirectory per run
// holding metadata.json and series.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Params    physics.Params     `json:"params"`
	Horizon   float64            `json:"horizon"`
	Samples   int                `json:"samples"`
	Stats     dynamo.Stats       `json:"solver_stats"`
	Metrics   map[string]float64 `json:"metrics"`
}

var seriesHeader = []string{"time", "np", "nw", "incident_flux", "return_flux", "thermal_release", "r_eff"}

// Save writes one completed run and returns its id.
func (s *Store) Save(p physics.Params, traj *dynamo.Trajectory, samples []diag.Sample) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	horizon, _ := traj.Final()
	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Params:    p,
		Horizon:   horizon,
		Samples:   traj.Len(),
		Stats:     traj.Stats,
		Metrics:   traj.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(seriesHeader); err != nil {
		return "", err
	}

	for i := 0; i < traj.Len(); i++ {
		y := traj.States[i]
		d := samples[i]
		row := []string{
			strconv.FormatFloat(traj.Times[i], 'g', 10, 64),
			strconv.FormatFloat(y[0], 'e', 6, 64),
			strconv.FormatFloat(y[1], 'e', 6, 64),
			strconv.FormatFloat(d.IncidentFlux, 'e', 6, 64),
			strconv.FormatFloat(d.ReturnFlux, 'e', 6, 64),
			strconv.FormatFloat(d.ThermalRelease, 'e', 6, 64),
			strconv.FormatFloat(d.Recycling, 'f', 8, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns stored run ids, newest last.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadMetadata reads one run's metadata.
func (s *Store) LoadMetadata(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is a stored run's tabular output, one column per header field.
type Series struct {
	Header  []string
	Columns [][]float64
}

// Column returns the series column with the given header name.
func (sr *Series) Column(name string) []float64 {
	for i, h := range sr.Header {
		if h == name {
			return sr.Columns[i]
		}
	}
	return nil
}

// LoadSeries reads one run's series.csv back into columns.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("run %s: empty series", runID)
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}
	for _, rec := range records[1:] {
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", runID, err)
			}
			cols[i] = append(cols[i], v)
		}
	}
	return &Series{Header: header, Columns: cols}, nil
}
