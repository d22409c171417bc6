package internal

import (
	"context"
	"strconv"
	"sync"
)

// Lightweight telemetry hook layer for cache and retry events. The default
// emitter is a no-op; service wiring can register a metrics-backed emitter
// (or a test recorder) via RegisterTelemetryEmitter.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {
		// noop by default
	}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil restores the no-op.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitCacheLookup records a cache hit or miss.
// name: "attr_cache_lookup" with labels {"cache": "schema"|"options", "object_type": "<type>", "hit": "true"|"false"}
func EmitCacheLookup(ctx context.Context, cache, objectType string, hit bool) {
	labels := map[string]string{"cache": cache, "object_type": objectType, "hit": strconv.FormatBool(hit)}
	emit(ctx, "attr_cache_lookup", labels, 1)
}

// EmitFetchFailure records a tolerated schema or option fetch failure.
// name: "attr_fetch_failure" with labels {"cache": "schema"|"options", "object_type": "<type>"}
func EmitFetchFailure(ctx context.Context, cache, objectType string) {
	labels := map[string]string{"cache": cache, "object_type": objectType}
	emit(ctx, "attr_fetch_failure", labels, 1)
}

// EmitRetryOutcome records the terminal state of a creation retry pipeline.
// name: "attr_write_retry" with labels {"object_type": "<type>", "outcome": "<outcome>"}
func EmitRetryOutcome(ctx context.Context, objectType, outcome string) {
	labels := map[string]string{"object_type": objectType, "outcome": outcome}
	emit(ctx, "attr_write_retry", labels, 1)
}
