package perf

import (
	"testing"
	"time"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector(16)
	now := time.Now()

	for i := 0; i < 10; i++ {
		c.Record(Sample{Kind: KindRequest, Label: "/sessions", Status: 200, Millis: float64(i + 1), At: now})
	}
	c.Record(Sample{Kind: KindQuery, Label: "attendance.Save", Millis: 3, At: now})
	c.Record(Sample{Kind: KindQuery, Label: "attendance.Save", Millis: 5, At: now})

	snap := c.Snapshot(now.Add(-time.Minute), 5)

	if snap.TotalRecorded != 12 {
		t.Errorf("TotalRecorded = %d, want 12", snap.TotalRecorded)
	}
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Label != "/sessions" {
		t.Fatalf("SlowestPaths = %+v, want one entry for /sessions", snap.SlowestPaths)
	}
	if snap.SlowestPaths[0].Count != 10 {
		t.Errorf("path count = %d, want 10", snap.SlowestPaths[0].Count)
	}
	if snap.SlowestPaths[0].MaxMs != 10 {
		t.Errorf("path max = %v, want 10", snap.SlowestPaths[0].MaxMs)
	}
	if len(snap.SlowestQueries) != 1 || snap.SlowestQueries[0].AvgMs != 4 {
		t.Errorf("SlowestQueries = %+v, want one entry with avg 4", snap.SlowestQueries)
	}
	if snap.RequestP50Ms < 5 || snap.RequestP50Ms > 6 {
		t.Errorf("RequestP50Ms = %v, want about 5.5", snap.RequestP50Ms)
	}
}

func TestCollector_RingOverwrite(t *testing.T) {
	c := NewCollector(4)
	now := time.Now()

	for i := 0; i < 8; i++ {
		c.Record(Sample{Kind: KindRequest, Label: "/a", Millis: 1, At: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 5)
	if snap.TotalRecorded != 8 {
		t.Errorf("TotalRecorded = %d, want 8", snap.TotalRecorded)
	}
	// Only the ring capacity worth of samples is aggregated.
	if snap.SlowestPaths[0].Count != 4 {
		t.Errorf("aggregated count = %d, want 4", snap.SlowestPaths[0].Count)
	}
}

func TestCollector_SinceFilter(t *testing.T) {
	c := NewCollector(8)
	old := time.Now().Add(-2 * time.Hour)
	fresh := time.Now()

	c.Record(Sample{Kind: KindRequest, Label: "/old", Millis: 1, At: old})
	c.Record(Sample{Kind: KindRequest, Label: "/fresh", Millis: 2, At: fresh})

	snap := c.Snapshot(fresh.Add(-time.Minute), 5)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Label != "/fresh" {
		t.Errorf("SlowestPaths = %+v, want only /fresh", snap.SlowestPaths)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{50, 3},
		{100, 5},
		{0, 1},
	}

	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(empty) = %v, want 0", got)
	}
}
