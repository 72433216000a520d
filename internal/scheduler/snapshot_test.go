package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
)

// stubAdapter supplies a fixed hardware descriptor.
type stubAdapter struct {
	caps fleet.Capabilities
}

func (s stubAdapter) Backend() string                            { return "stub" }
func (s stubAdapter) State(context.Context) (fleet.Status, error) { return fleet.Status{}, nil }
func (s stubAdapter) Capabilities() fleet.Capabilities            { return s.caps }

// fakeFleet is a canned FleetSource.
type fakeFleet struct {
	entries  []fleet.StatusEntry
	adapters map[string]fleet.Adapter
}

func (f *fakeFleet) FleetStatus(context.Context) []fleet.StatusEntry { return f.entries }
func (f *fakeFleet) ListAll() map[string]fleet.Adapter               { return f.adapters }

// fakeQueue is a canned Queue.
type fakeQueue struct {
	jobs []Job
	err  error
}

func (q *fakeQueue) ListJobs(_ context.Context, status JobStatus) ([]Job, error) {
	if q.err != nil {
		return nil, q.err
	}
	var out []Job
	for _, j := range q.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

// fakeRates is a canned SuccessRates.
type fakeRates struct {
	rankings []PrinterRanking
	err      error
}

func (r *fakeRates) PrinterRankings(context.Context) ([]PrinterRanking, error) {
	return r.rankings, r.err
}

func twoPrinterFleet() *fakeFleet {
	hw := fleet.Capabilities{
		Materials:   []string{"PLA"},
		BuildVolume: fleet.Volume{X: 250, Y: 210, Z: 210},
		NozzleSizes: []float64{0.4},
	}
	return &fakeFleet{
		entries: []fleet.StatusEntry{
			{Name: "voron-01", Connected: true, State: fleet.StateIdle},
			{Name: "mk4-01", Connected: true, State: fleet.StatePrinting},
		},
		adapters: map[string]fleet.Adapter{
			"voron-01": stubAdapter{caps: hw},
			"mk4-01":   stubAdapter{caps: hw},
		},
	}
}

func TestFleetCapabilities_Availability(t *testing.T) {
	source := twoPrinterFleet()
	source.entries = append(source.entries,
		fleet.StatusEntry{Name: "dead-01", Connected: false, State: fleet.StateOffline})

	caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}
	if len(caps) != 3 {
		t.Fatalf("got %d capability records, want 3", len(caps))
	}

	byID := make(map[string]PrinterCapabilities)
	for _, c := range caps {
		byID[c.PrinterID] = c
	}
	if !byID["voron-01"].IsAvailable {
		t.Error("idle connected printer should be available")
	}
	if byID["mk4-01"].IsAvailable {
		t.Error("printing printer should not be available")
	}
	if byID["dead-01"].IsAvailable {
		t.Error("offline printer should not be available")
	}
}

func TestFleetCapabilities_HardwareDescriptor(t *testing.T) {
	source := twoPrinterFleet()

	caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}

	c := caps[1] // sorted: mk4-01, voron-01
	if c.PrinterID != "voron-01" {
		t.Fatalf("caps[1] = %q, want voron-01 (sorted by id)", c.PrinterID)
	}
	if len(c.Materials) != 1 || c.Materials[0] != "PLA" {
		t.Errorf("Materials = %v, want [PLA]", c.Materials)
	}
	if c.MaxBuildVolume.X != 250 {
		t.Errorf("MaxBuildVolume.X = %v, want 250", c.MaxBuildVolume.X)
	}
	if len(c.NozzleSizes) != 1 || c.NozzleSizes[0] != 0.4 {
		t.Errorf("NozzleSizes = %v, want [0.4]", c.NozzleSizes)
	}
}

func TestFleetCapabilities_FairShareLoad(t *testing.T) {
	queue := &fakeQueue{jobs: []Job{
		{ID: "j1", PrinterName: "voron-01", Status: JobStatusQueued},
		{ID: "j2", PrinterName: "voron-01", Status: JobStatusQueued},
		{ID: "j3", Status: JobStatusQueued}, // untargeted
		{ID: "j4", Status: JobStatusQueued}, // untargeted
		{ID: "j5", Status: JobStatusQueued}, // untargeted
		{ID: "j6", PrinterName: "voron-01", Status: JobStatusRunning}, // not queued, ignored
	}}

	caps, err := FleetCapabilities(context.Background(), twoPrinterFleet(), queue, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}

	byID := make(map[string]PrinterCapabilities)
	for _, c := range caps {
		byID[c.PrinterID] = c
	}

	// Fair share = ceil(3 untargeted / 2 printers) = 2 each.
	// voron-01: 2 targeted + 2 fair share = depth 4.
	voron := byID["voron-01"]
	if !almostEqual(voron.CurrentLoad, 0.4) {
		t.Errorf("voron-01 CurrentLoad = %v, want 0.4", voron.CurrentLoad)
	}
	if voron.EstimatedQueueWaitMinutes != 120 {
		t.Errorf("voron-01 wait = %d, want 120", voron.EstimatedQueueWaitMinutes)
	}

	// mk4-01: 0 targeted + 2 fair share = depth 2.
	mk4 := byID["mk4-01"]
	if !almostEqual(mk4.CurrentLoad, 0.2) {
		t.Errorf("mk4-01 CurrentLoad = %v, want 0.2", mk4.CurrentLoad)
	}
	if mk4.EstimatedQueueWaitMinutes != 60 {
		t.Errorf("mk4-01 wait = %d, want 60", mk4.EstimatedQueueWaitMinutes)
	}
}

func TestFleetCapabilities_LoadSaturates(t *testing.T) {
	jobs := make([]Job, 0, 15)
	for i := 0; i < 15; i++ {
		jobs = append(jobs, Job{PrinterName: "voron-01", Status: JobStatusQueued})
	}

	caps, err := FleetCapabilities(context.Background(), twoPrinterFleet(), &fakeQueue{jobs: jobs}, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}

	for _, c := range caps {
		if c.PrinterID == "voron-01" && c.CurrentLoad != 1.0 {
			t.Errorf("CurrentLoad = %v beyond saturation depth, want 1.0", c.CurrentLoad)
		}
	}
}

func TestFleetCapabilities_SuccessRates(t *testing.T) {
	t.Run("default without history", func(t *testing.T) {
		caps, err := FleetCapabilities(context.Background(), twoPrinterFleet(), &fakeQueue{}, nil)
		if err != nil {
			t.Fatalf("FleetCapabilities() error = %v", err)
		}
		for _, c := range caps {
			if c.SuccessRate != DefaultSuccessRate {
				t.Errorf("%s SuccessRate = %v, want default %v", c.PrinterID, c.SuccessRate, DefaultSuccessRate)
			}
		}
	})

	t.Run("measured rate applied", func(t *testing.T) {
		rates := &fakeRates{rankings: []PrinterRanking{{PrinterName: "voron-01", SuccessRate: 0.95}}}

		caps, err := FleetCapabilities(context.Background(), twoPrinterFleet(), &fakeQueue{}, rates)
		if err != nil {
			t.Fatalf("FleetCapabilities() error = %v", err)
		}
		for _, c := range caps {
			switch c.PrinterID {
			case "voron-01":
				if c.SuccessRate != 0.95 {
					t.Errorf("voron-01 SuccessRate = %v, want measured 0.95", c.SuccessRate)
				}
			case "mk4-01":
				if c.SuccessRate != DefaultSuccessRate {
					t.Errorf("mk4-01 SuccessRate = %v, want default", c.SuccessRate)
				}
			}
		}
	})

	t.Run("lookup failure swallowed", func(t *testing.T) {
		rates := &fakeRates{err: errors.New("history table corrupt")}

		caps, err := FleetCapabilities(context.Background(), twoPrinterFleet(), &fakeQueue{}, rates)
		if err != nil {
			t.Fatalf("FleetCapabilities() error = %v, rates failure must be swallowed", err)
		}
		for _, c := range caps {
			if c.SuccessRate != DefaultSuccessRate {
				t.Errorf("%s SuccessRate = %v, want default retained", c.PrinterID, c.SuccessRate)
			}
		}
	})
}

func TestFleetCapabilities_QueueFailure(t *testing.T) {
	queue := &fakeQueue{err: errors.New("queue unavailable")}
	if _, err := FleetCapabilities(context.Background(), twoPrinterFleet(), queue, nil); err == nil {
		t.Error("FleetCapabilities() error = nil, want queue failure surfaced")
	}
}

func TestFleetCapabilities_EmptyFleet(t *testing.T) {
	source := &fakeFleet{}
	caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}
	if len(caps) != 0 {
		t.Errorf("got %d capability records for empty fleet, want 0", len(caps))
	}
}

func TestFleetCapabilities_ConfiguredDefaultRate(t *testing.T) {
	source := twoPrinterFleet()

	caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, nil,
		WithDefaultSuccessRate(0.5))
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}
	for _, c := range caps {
		if c.SuccessRate != 0.5 {
			t.Errorf("printer %s success rate = %v, want configured default 0.5", c.PrinterID, c.SuccessRate)
		}
	}

	t.Run("out of range ignored", func(t *testing.T) {
		caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, nil,
			WithDefaultSuccessRate(1.5))
		if err != nil {
			t.Fatalf("FleetCapabilities() error = %v", err)
		}
		for _, c := range caps {
			if c.SuccessRate != DefaultSuccessRate {
				t.Errorf("printer %s success rate = %v, want %v", c.PrinterID, c.SuccessRate, DefaultSuccessRate)
			}
		}
	})

	t.Run("measured rate still wins", func(t *testing.T) {
		rates := &fakeRates{rankings: []PrinterRanking{{PrinterName: "voron-01", SuccessRate: 0.9}}}
		caps, err := FleetCapabilities(context.Background(), source, &fakeQueue{}, rates,
			WithDefaultSuccessRate(0.5))
		if err != nil {
			t.Fatalf("FleetCapabilities() error = %v", err)
		}
		for _, c := range caps {
			want := 0.5
			if c.PrinterID == "voron-01" {
				want = 0.9
			}
			if c.SuccessRate != want {
				t.Errorf("printer %s success rate = %v, want %v", c.PrinterID, c.SuccessRate, want)
			}
		}
	})
}

func TestFleetCapabilities_NilQueue(t *testing.T) {
	source := twoPrinterFleet()

	caps, err := FleetCapabilities(context.Background(), source, nil, nil)
	if err != nil {
		t.Fatalf("FleetCapabilities() error = %v", err)
	}
	if len(caps) != 2 {
		t.Fatalf("got %d entries, want 2", len(caps))
	}
	for _, c := range caps {
		if c.CurrentLoad != 0 {
			t.Errorf("printer %s load = %v, want 0 with no queue", c.PrinterID, c.CurrentLoad)
		}
		if c.EstimatedQueueWaitMinutes != 0 {
			t.Errorf("printer %s wait = %v, want 0 with no queue", c.PrinterID, c.EstimatedQueueWaitMinutes)
		}
	}
}
