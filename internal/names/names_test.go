package names

import (
	"sync"
	"testing"

	"github.com/wippyai/flowtree/tree"
)

func TestFreshIsSequential(t *testing.T) {
	g := NewGenerator()
	if got := g.Fresh("ok"); got != "ok#1" {
		t.Errorf("first name = %q", got)
	}
	if got := g.Fresh("ok"); got != "ok#2" {
		t.Errorf("second name = %q", got)
	}
}

func TestFreshConcurrent(t *testing.T) {
	g := NewGenerator()
	const workers, each = 8, 200

	var mu sync.Mutex
	seen := make(map[tree.Name]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]tree.Name, 0, each)
			for i := 0; i < each; i++ {
				local = append(local, g.Fresh("t"))
			}
			mu.Lock()
			defer mu.Unlock()
			for _, n := range local {
				if seen[n] {
					t.Errorf("duplicate name %q", n)
				}
				seen[n] = true
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*each {
		t.Errorf("got %d names, want %d", len(seen), workers*each)
	}
}
