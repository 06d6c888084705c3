package debouncez

import "time"

// Observer receives lifecycle callbacks from a running BufferedDebounce.
// Callbacks run synchronously on the processing goroutine, in order, and
// must not block.
type Observer interface {
	// BatchOpened is called when an epoch opens and its max-age timer is armed.
	BatchOpened(epoch uint64, openedAt time.Time)

	// ItemAccepted is called after an item is buffered and the idle timer re-armed.
	ItemAccepted(epoch uint64)

	// BatchClosed is called once per closed epoch. emitted is false when an
	// empty batch was suppressed.
	BatchClosed(info BatchInfo, size int, emitted bool)

	// SignalDiscarded is called for a timer fire that lost the race or
	// belongs to an already closed epoch.
	SignalDiscarded(reason CloseReason, epoch uint64)

	// UpstreamFailed is called when an error arrives on the input.
	// discarded is the size of the partial batch that was dropped.
	UpstreamFailed(err error, discarded int)
}

// NopObserver ignores every callback. Embed it to implement only some hooks.
type NopObserver struct{}

func (NopObserver) BatchOpened(uint64, time.Time) {}
func (NopObserver) ItemAccepted(uint64) {}
func (NopObserver) BatchClosed(BatchInfo, int, bool) {}
func (NopObserver) SignalDiscarded(CloseReason, uint64) {}
func (NopObserver) UpstreamFailed(error, int) {}

// observers fans callbacks out in registration order.
type observers []Observer

func (o observers) BatchOpened(epoch uint64, openedAt time.Time) {
	for _, obs := range o {
		obs.BatchOpened(epoch, openedAt)
	}
}

func (o observers) ItemAccepted(epoch uint64) {
	for _, obs := range o {
		obs.ItemAccepted(epoch)
	}
}

func (o observers) BatchClosed(info BatchInfo, size int, emitted bool) {
	for _, obs := range o {
		obs.BatchClosed(info, size, emitted)
	}
}

func (o observers) SignalDiscarded(reason CloseReason, epoch uint64) {
	for _, obs := range o {
		obs.SignalDiscarded(reason, epoch)
	}
}

func (o observers) UpstreamFailed(err error, discarded int) {
	for _, obs := range o {
		obs.UpstreamFailed(err, discarded)
	}
}
