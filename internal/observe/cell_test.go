package observe

import (
	"testing"
)

func TestCellSetNotifiesInOrder(t *testing.T) {
	c := NewCell(0)

	var got []string
	c.Subscribe(func(v int) { got = append(got, "a") })
	c.Subscribe(func(v int) { got = append(got, "b") })

	c.Set(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("delivery order = %v, want [a b]", got)
	}
	if c.Get() != 1 {
		t.Fatalf("Get() = %d, want 1", c.Get())
	}
}

func TestCellSubscriberSeesPostWriteValue(t *testing.T) {
	c := NewCell("old")

	var seen, viaGet string
	c.Subscribe(func(v string) {
		seen = v
		viaGet = c.Get()
	})
	c.Set("new")

	if seen != "new" || viaGet != "new" {
		t.Fatalf("subscriber saw %q / Get %q, want new / new", seen, viaGet)
	}
}

func TestCellCancelStopsDelivery(t *testing.T) {
	c := NewCell(0)

	calls := 0
	cancel := c.Subscribe(func(int) { calls++ })

	c.Set(1)
	cancel()
	cancel()
	c.Set(2)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if c.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", c.Subscribers())
	}
}

func TestCellCancelDuringBroadcast(t *testing.T) {
	c := NewCell(0)

	var cancelB func()
	bCalls := 0
	c.Subscribe(func(int) { cancelB() })
	cancelB = c.Subscribe(func(int) { bCalls++ })

	c.Set(1)

	if bCalls != 0 {
		t.Fatalf("cancelled subscriber called %d times, want 0", bCalls)
	}
}
