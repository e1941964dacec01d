package parallel

import (
	"sort"
	"sync"
	"testing"
)

type strip struct{ y0, y1 int }

func collectStrips(p *Pool, height int) []strip {
	var mu sync.Mutex
	var strips []strip
	p.ForRows(height, func(y0, y1 int) {
		mu.Lock()
		strips = append(strips, strip{y0, y1})
		mu.Unlock()
	})
	sort.Slice(strips, func(i, j int) bool { return strips[i].y0 < strips[j].y0 })
	return strips
}

func assertPartition(t *testing.T, strips []strip, height int) {
	t.Helper()
	next := 0
	for i, s := range strips {
		if s.y0 != next {
			t.Fatalf("strips[%d] - gap or overlap. expected y0=%d, got=%d", i, next, s.y0)
		}
		if s.y1 <= s.y0 {
			t.Fatalf("strips[%d] - empty strip [%d,%d)", i, s.y0, s.y1)
		}
		next = s.y1
	}
	if next != height {
		t.Fatalf("partition short. expected end=%d, got=%d", height, next)
	}
}

func TestForRowsPartitionLargeHeight(t *testing.T) {
	p := NewPool(4)
	strips := collectStrips(p, 103)
	if len(strips) != 4 {
		t.Fatalf("strip count wrong. expected=4, got=%d", len(strips))
	}
	assertPartition(t, strips, 103)
}

func TestForRowsSmallHeightRunsInline(t *testing.T) {
	p := NewPool(8)
	strips := collectStrips(p, 3)
	if len(strips) != 1 {
		t.Fatalf("strip count wrong. expected=1, got=%d", len(strips))
	}
	assertPartition(t, strips, 3)
}

func TestForRowsSingleWorker(t *testing.T) {
	p := NewPool(1)
	strips := collectStrips(p, 64)
	if len(strips) != 1 || strips[0].y0 != 0 || strips[0].y1 != 64 {
		t.Fatalf("single worker strips wrong. got=%v", strips)
	}
}

func TestForRowsZeroHeight(t *testing.T) {
	p := NewPool(4)
	called := false
	p.ForRows(0, func(y0, y1 int) { called = true })
	if called {
		t.Fatalf("callback ran for zero height")
	}
}

func TestForRowsCoversEveryRow(t *testing.T) {
	p := NewPool(4)
	const height = 211
	buf := make([]int, height)
	p.ForRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			buf[y] = y + 1
		}
	})
	for y, v := range buf {
		if v != y+1 {
			t.Fatalf("row %d not processed. got=%d", y, v)
		}
	}
}

func TestForRowsRepeatedDispatches(t *testing.T) {
	p := NewPool(4)
	for round := 0; round < 100; round++ {
		strips := collectStrips(p, 64+round)
		assertPartition(t, strips, 64+round)
	}
}

func TestForRowsConcurrentCallers(t *testing.T) {
	p := NewPool(4)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 20; round++ {
				total := 0
				var mu sync.Mutex
				p.ForRows(128, func(y0, y1 int) {
					mu.Lock()
					total += y1 - y0
					mu.Unlock()
				})
				if total != 128 {
					t.Errorf("dispatch incomplete. expected=128, got=%d", total)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDefaultPoolIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default returned different pools")
	}
	if Default().Workers() < 1 {
		t.Fatalf("default pool has no workers")
	}
}
