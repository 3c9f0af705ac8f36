// Package host provides a high-level client for the UMD cartridge dumper.
//
// # Overview
//
// The client speaks the UMD wire protocol over any io.ReadWriter, usually
// the device's CDC ACM serial port:
//   - One method per device command (version, voltage, adapter and flash
//     ID, LEDs, device ID, read, erase, program)
//   - Chunked dumps with a CRC check on every block
//   - Chunked flash programming with read-back verification
//   - Automatic resends after CRC_ERROR and PAYLOAD_TIMEOUT replies
//
// # Basic Usage
//
// Dump a cartridge:
//
//	port, err := serial.Open(serial.OpenOptions{
//	    PortName:        "/dev/ttyACM0",
//	    BaudRate:        115200,
//	    DataBits:        8,
//	    StopBits:        1,
//	    MinimumReadSize: 1,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := host.New(port)
//
//	if _, err := client.AdapterID(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	f, _ := os.Create("game.bin")
//	defer f.Close()
//	if err := client.Dump(ctx, 0, 0x400000, f); err != nil {
//	    log.Fatal(err)
//	}
//
// Call AdapterID before any cartridge access: it makes the device select
// the driver for the fitted adapter.
//
// # Progress Tracking
//
// Track transfers with a callback:
//
//	client := host.New(port,
//	    host.WithProgressCallback(func(p host.Progress) {
//	        fmt.Printf("[%s] %.1f%% - chunk %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentChunk, p.TotalChunks)
//	    }),
//	)
//
// # Configuration Options
//
//	client := host.New(port,
//	    host.WithProgressCallback(progressFunc),
//	    host.WithLogger(slog.Default()),
//	    host.WithTimeout(10*time.Second),
//	    host.WithChunkSize(4096),
//	    host.WithRetries(5),
//	    host.WithVerifyAfterProgram(true),
//	)
//
// Genesis cartridges are 16 bits wide: addresses and lengths passed to
// ReadROM, Dump and Program must be even.
//
// # Error Handling
//
// The package defines specific error types:
//
//	err := client.Program(ctx, 0, data)
//	var sizeErr *host.SizeMismatchError
//	var verifyErr *host.VerificationError
//	switch {
//	case errors.As(err, &sizeErr):
//	    fmt.Printf("image needs %d bytes, flash has %d\n", sizeErr.Length, sizeErr.FlashSize)
//	case errors.As(err, &verifyErr):
//	    fmt.Printf("mismatch at 0x%06X\n", verifyErr.Address)
//	case protocol.IsReplyError(err):
//	    fmt.Printf("device error: %v\n", err)
//	}
package host
