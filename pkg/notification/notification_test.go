package notification

import (
	"errors"
	"testing"
	"time"
)

type recordingNotifier struct {
	notifications int
	networkErrors int
	checkouts     []int
}

func (r *recordingNotifier) ShowNotification(title, body, mount string) { r.notifications++ }
func (r *recordingNotifier) ShowNetworkNotification(err error)          { r.networkErrors++ }
func (r *recordingNotifier) SignalCheckout(activeCount int) {
	r.checkouts = append(r.checkouts, activeCount)
}

func TestThrottledSuppressesRapidNotifications(t *testing.T) {
	inner := &recordingNotifier{}
	throttled := NewThrottled(inner, time.Hour)

	throttled.ShowNotification("a", "b", "mount")
	throttled.ShowNotification("a", "b", "mount")
	throttled.ShowNetworkNotification(errors.New("boom"))

	if inner.notifications != 1 {
		t.Fatalf("expected exactly one shown notification, got %d", inner.notifications)
	}
	if inner.networkErrors != 0 {
		t.Fatalf("expected the network notification to be throttled, got %d", inner.networkErrors)
	}
}

func TestThrottledAllowsAfterInterval(t *testing.T) {
	inner := &recordingNotifier{}
	throttled := NewThrottled(inner, time.Millisecond)

	throttled.ShowNotification("a", "b", "mount")
	time.Sleep(5 * time.Millisecond)
	throttled.ShowNotification("a", "b", "mount")

	if inner.notifications != 2 {
		t.Fatalf("expected both notifications to be shown after the interval elapsed, got %d", inner.notifications)
	}
}

func TestSignalCheckoutIsNeverThrottled(t *testing.T) {
	inner := &recordingNotifier{}
	throttled := NewThrottled(inner, time.Hour)

	throttled.SignalCheckout(1)
	throttled.SignalCheckout(2)
	throttled.SignalCheckout(0)

	if len(inner.checkouts) != 3 {
		t.Fatalf("expected every SignalCheckout call to pass through, got %d", len(inner.checkouts))
	}
}
