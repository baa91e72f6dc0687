// Package surfaceloop bridges asynchronous platform lifecycle callbacks into a
// single-goroutine, frame-paced application loop that owns a native surface
// handle for as long as it is bound.
//
// # Architecture
//
// A [Bridge] is constructed once and shared by two parties:
//   - the host adapter, which translates platform callbacks (surface
//     created/changed/destroyed, touch, resume, pause, stop) into [Command]
//     values, from any goroutine
//   - a [Runner], the single consumer, which owns the [FrameEngine] and the
//     bound [Window] while it runs
//
// The bridge holds an unbounded multi-producer single-consumer [Channel] and a
// [ReleaseHandshake]. It outlives individual runs: a restartable host may call
// [Runner.Run] many times against the same bridge.
//
// # Surface ownership
//
// A [Window] is a move-only wrapper around the opaque native handle. Sending
// [CmdSurfaceCreated] moves ownership into the channel and then into the
// runner, which binds it to the engine. [Bridge.SurfaceDestroyed] blocks the
// calling goroutine until the runner has unbound the window from the engine
// and released it, so the host may safely invalidate the native handle as soon
// as the call returns. If no runner is active there is nothing to release and
// the call returns immediately.
//
// # Scheduling
//
// Each [Runner.Step] drains every queued command, ticks the engine at most
// once (only when the engine is ready and a sized surface is bound), completes
// any pending surface teardown, then blocks on the channel for the remainder
// of the frame interval. A command arriving during that wait is handled
// immediately, so input latency is bounded by one frame interval.
//
// # Usage
//
//	bridge, err := surfaceloop.NewBridge(surfaceloop.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	runner, err := surfaceloop.NewRunner(bridge, engine,
//	    surfaceloop.WithFrameInterval(time.Second/60),
//	)
//	if err != nil {
//	    return err
//	}
//
//	go func() {
//	    if err := runner.Run(ctx); err != nil {
//	        log.Print(err)
//	    }
//	}()
//
//	// from platform callbacks
//	_ = bridge.SurfaceCreated(surfaceloop.NewWindow(handle, release))
//	_ = bridge.SurfaceChanged(1080, 2340)
//	_ = bridge.SurfaceDestroyed(context.Background())
//	_ = bridge.Stop()
//
// # Protocol violations
//
// Commands that contradict the host contract (resizing or destroying a
// surface that was never created, or creating a second surface while one is
// bound) are fatal: the runner logs the violated invariant at critical level
// and panics with a [*ProtocolError].
package surfaceloop
