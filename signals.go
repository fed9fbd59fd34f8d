package pbemarker

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signal definitions for pbemarker events.
// Fields never carry passwords, plaintext or key material.
var (
	SignalDiscoveryDegraded = capitan.NewSignal("pbemarker.discovery.degraded", "Provider enumeration failed")
	SignalDiscoveryComplete = capitan.NewSignal("pbemarker.discovery.complete", "Algorithm discovery finished")
	SignalTransformComplete = capitan.NewSignal("pbemarker.transform.complete", "Content transformation finished")
	SignalRekeyComplete     = capitan.NewSignal("pbemarker.rekey.complete", "Content rekey finished")
	SignalFileWritten       = capitan.NewSignal("pbemarker.file.written", "File toggle finished")
)

// Field keys for pbemarker events.
var (
	KeyProvider  = capitan.NewStringKey("provider")
	KeyAlgorithm = capitan.NewStringKey("algorithm")
	KeyDirection = capitan.NewStringKey("direction")
	KeyPath      = capitan.NewStringKey("path")
	KeyCount     = capitan.NewIntKey("count")
	KeyMarkers   = capitan.NewIntKey("markers")
	KeyDryRun    = capitan.NewStringKey("dry_run")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
)

// emitDiscoveryDegraded emits an event when a provider fails enumeration.
func emitDiscoveryDegraded(ctx context.Context, provider string, err error) {
	capitan.Error(ctx, SignalDiscoveryDegraded,
		KeyProvider.Field(provider),
		KeyError.Field(err),
	)
}

// emitDiscoveryComplete emits an event when discovery finishes.
func emitDiscoveryComplete(ctx context.Context, count int, duration time.Duration) {
	capitan.Emit(ctx, SignalDiscoveryComplete,
		KeyCount.Field(count),
		KeyDuration.Field(duration),
	)
}

// emitTransformComplete emits an event when a transformation finishes.
func emitTransformComplete(ctx context.Context, algorithm string, dir Direction, markers int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyAlgorithm.Field(algorithm),
		KeyDirection.Field(dir.String()),
		KeyMarkers.Field(markers),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalTransformComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalTransformComplete, fields...)
	}
}

// emitRekeyComplete emits an event when a rekey finishes.
func emitRekeyComplete(ctx context.Context, algorithm string, markers int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyAlgorithm.Field(algorithm),
		KeyMarkers.Field(markers),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalRekeyComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalRekeyComplete, fields...)
	}
}

// emitFileWritten emits an event when a file toggle finishes.
func emitFileWritten(ctx context.Context, path string, markers int, dryRun bool) {
	mode := "false"
	if dryRun {
		mode = "true"
	}
	capitan.Emit(ctx, SignalFileWritten,
		KeyPath.Field(path),
		KeyMarkers.Field(markers),
		KeyDryRun.Field(mode),
	)
}
