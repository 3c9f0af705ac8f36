// Package device implements the UMD firmware's command side: a
// transport that buffers incoming bytes, and a dispatcher that frames
// requests, verifies their CRC, runs the matching command and sends a
// single reply frame.
//
// Basic usage:
//
//	registry := cart.NewRegistry(memBus, board)
//	dev := device.New(device.NewStreamTransport(port), registry,
//	    device.WithLogger(slog.Default()),
//	    device.WithLEDs(led0, led1, led2, led3),
//	)
//	if err := dev.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Poll handles at most one frame and is the building block of Run. A
// frame that does not fully arrive, fails its CRC, or names an unknown
// command is answered with the matching reserved reply code and the
// device waits for the next header.
package device
