package backoffdelay

import (
	"testing"
	"time"
)

func TestExponentialGrowsToMaximum(t *testing.T) {
	var slept []time.Duration
	e := newExponential(time.Millisecond, 4*time.Millisecond, 0)
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	for i := 0; i < 5; i++ {
		e.Sleep()
	}
	expected := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
	}
	for index, duration := range expected {
		if slept[index] != duration {
			t.Errorf("sleep %d: %s != %s", index, slept[index], duration)
		}
	}
}

func TestDefaults(t *testing.T) {
	e := newExponential(0, 0, 1)
	if e.minimum != time.Second {
		t.Errorf("minimum: %s != 1s", e.minimum)
	}
	if e.maximum != 10*time.Second {
		t.Errorf("maximum: %s != 10s", e.maximum)
	}
}
