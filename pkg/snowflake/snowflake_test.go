package snowflake

import (
	"strings"
	"sync"
	"testing"
)

func TestNewIDGenerator(t *testing.T) {
	if _, err := NewIDGenerator(1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := NewIDGenerator(-1); err == nil {
		t.Error("expected error for negative node ID")
	}

	if _, err := NewIDGenerator(nodeMask + 1); err == nil {
		t.Error("expected error for node ID out of range")
	}
}

func TestNextID_Unique(t *testing.T) {
	gen, err := NewIDGenerator(1)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		id := gen.NextID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %d", id)
		}
		seen[id] = true
	}
}

func TestNextID_Monotonic(t *testing.T) {
	gen, _ := NewIDGenerator(1)

	prev := gen.NextID()
	for i := 0; i < 1000; i++ {
		id := gen.NextID()
		if id <= prev {
			t.Fatalf("ID %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNextID_Concurrent(t *testing.T) {
	gen, _ := NewIDGenerator(2)

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, gen.NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate ID generated: %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestNextDealNo(t *testing.T) {
	gen, _ := NewIDGenerator(3)

	no := gen.NextDealNo()
	if !strings.HasPrefix(no, "D") {
		t.Errorf("deal number %q missing prefix", no)
	}
	if no == gen.NextDealNo() {
		t.Error("consecutive deal numbers must differ")
	}
}
