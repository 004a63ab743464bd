package common

import (
	"reflect"
	"sync"
	"testing"
)

func TestRingBuffer_AddAndGet(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if got := rb.Get(); len(got) != 0 {
		t.Fatalf("empty buffer = %v", got)
	}
	rb.Add(1)
	rb.Add(2)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("got %v", got)
	}
	rb.Add(3)
	rb.Add(4)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("got %v", got)
	}
	if rb.Len() != 3 || rb.Cap() != 3 {
		t.Errorf("len %d cap %d", rb.Len(), rb.Cap())
	}
}

func TestRingBuffer_Tail(t *testing.T) {
	rb := NewRingBuffer[int](4)
	for i := 1; i <= 6; i++ {
		rb.Add(i)
	}
	for n, want := range map[int][]int{
		0:  {},
		2:  {5, 6},
		4:  {3, 4, 5, 6},
		9:  {3, 4, 5, 6},
		-1: {3, 4, 5, 6},
	} {
		if got := rb.Tail(n); !reflect.DeepEqual(got, want) {
			t.Errorf("tail(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestRingBufferConcurrent(t *testing.T) {
	rb := NewRingBuffer[int](8)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rb.Add(w*100 + i)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if got := rb.Get(); len(got) > 8 {
					t.Errorf("len %d over capacity", len(got))
					return
				}
			}
		}()
	}
	wg.Wait()
	if rb.Len() != 8 {
		t.Errorf("len = %d, want 8", rb.Len())
	}
	for _, v := range rb.Get() {
		if v < 0 || v >= 400 {
			t.Errorf("unexpected value %d", v)
		}
	}
}
