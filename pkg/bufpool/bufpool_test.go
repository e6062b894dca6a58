package bufpool

import (
	"sync"
	"testing"
)

func TestGetReturnsExactSize(t *testing.T) {
	p := New(4 << 20)
	buf := p.Get()
	if len(buf) != 4<<20 {
		t.Fatalf("expected len %d, got %d", 4<<20, len(buf))
	}
	p.Put(buf)
}

func TestPutGetReuse(t *testing.T) {
	p := New(1024)
	buf := p.Get()
	buf[0] = 0xAB
	p.Put(buf)

	buf2 := p.Get()
	if cap(buf2) != 1024 {
		t.Fatalf("expected reused buffer capacity 1024, got %d", cap(buf2))
	}
}

func TestPutIgnoresWrongCapacity(t *testing.T) {
	p := New(1024)
	wrong := make([]byte, 512)
	p.Put(wrong) // must not panic or corrupt the pool

	buf := p.Get()
	if len(buf) != 1024 {
		t.Fatalf("expected len 1024, got %d", len(buf))
	}
}

func TestPutNilIsNoop(t *testing.T) {
	p := New(64)
	p.Put(nil)
}

func TestSize(t *testing.T) {
	p := New(2048)
	if p.Size() != 2048 {
		t.Fatalf("expected size 2048, got %d", p.Size())
	}
}

func TestConcurrentGetPut(t *testing.T) {
	p := New(1024)
	const goroutines = 20
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				buf := p.Get()
				buf[0] = byte(id)
				p.Put(buf)
			}
		}(i)
	}
	wg.Wait()
}
