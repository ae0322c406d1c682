// Package clock drives tick-stepped components from an input source.
//
// A Driver owns the tick counter and nothing else: it asks a Source for the
// inputs of tick n, applies them to a Ticker, and records the outputs.
//
//	buf, _ := fifo.New(fifo.DefaultConfig())
//	d := clock.New(buf, clock.WithRate(1000))
//	trace, err := d.Run(ctx, clock.FromSlice(inputs))
//
// Without WithRate the driver is free-running and only bounded by the source
// and MaxTicks.
package clock
