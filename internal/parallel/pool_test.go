package parallel

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPoolWorkers(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{4, 4},
		{1, 1},
		{0, runtime.GOMAXPROCS(0)},
		{-5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		p := NewPool(tt.in)
		if p.Workers() != tt.want {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", tt.in, p.Workers(), tt.want)
		}
		p.Close()
	}
}

func TestExecuteAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	p.ExecuteAll(work)
	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestExecuteAllAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	ran := 0
	p.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d after Close, want 2", ran)
	}
}

func TestBandsCoverRange(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n, band int
	}{
		{"single worker", 1, 100, 4},
		{"small range", 8, 3, 16},
		{"even split", 4, 64, 8},
		{"uneven split", 3, 101, 8},
		{"more workers than bands", 16, 20, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.workers)
			defer p.Close()

			var mu sync.Mutex
			var ranges [][2]int
			seen := make([]int, tt.n)
			p.Bands(tt.n, tt.band, func(lo, hi int) {
				mu.Lock()
				defer mu.Unlock()
				ranges = append(ranges, [2]int{lo, hi})
				for i := lo; i < hi; i++ {
					seen[i]++
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("item %d visited %d times", i, c)
				}
			}
			if len(ranges) > tt.workers {
				t.Errorf("%d bands for %d workers", len(ranges), tt.workers)
			}
			sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
			if ranges[0][0] != 0 || ranges[len(ranges)-1][1] != tt.n {
				t.Errorf("bands %v do not span [0, %d)", ranges, tt.n)
			}
		})
	}
}

func TestBandsNilPool(t *testing.T) {
	var p *Pool
	var got [][2]int
	p.Bands(10, 2, func(lo, hi int) { got = append(got, [2]int{lo, hi}) })
	if diff := cmp.Diff([][2]int{{0, 10}}, got); diff != "" {
		t.Errorf("nil pool bands mismatch (-want +got):\n%s", diff)
	}
	p.Bands(0, 2, func(int, int) { t.Error("called for empty range") })
}
