package store

import (
	"sync"
	"testing"
)

func TestLocksSerializeAndRelease(t *testing.T) {
	l := NewLocks()

	const n = 50
	var wg sync.WaitGroup
	inside := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			inside++
			if inside != 1 {
				t.Errorf("%d holders of the same survey", inside)
			}
			inside--
		}()
	}
	wg.Wait()

	if n := l.Len(); n != 0 {
		t.Errorf("Len = %d after all unlocks", n)
	}

	a := l.Lock("a")
	b := l.Lock("b")
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
	a()
	b()
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}
