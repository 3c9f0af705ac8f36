package host

import "time"

// Transfer phases reported through Progress.Phase.
const (
	PhaseIdentifying = "identifying"
	PhaseReading     = "reading"
	PhaseProgramming = "programming"
	PhaseVerifying   = "verifying"
	PhaseComplete    = "complete"
)

// Progress contains information about a running dump or program.
// Passed to ProgressCallback after every chunk.
type Progress struct {
	// Phase describes the current operation phase:
	//   "identifying" - Reading the flash ID before programming
	//   "reading"     - Dumping cartridge memory
	//   "programming" - Programming flash chunks
	//   "verifying"   - Reading back programmed data
	//   "complete"    - Operation completed successfully
	Phase string

	// CurrentChunk is the number of chunks finished in this phase
	CurrentChunk int

	// TotalChunks is the number of chunks in this phase
	TotalChunks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// Bytes is the number of bytes transferred so far in this phase
	Bytes int

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every chunk to report progress.
// Implementations should return quickly to avoid stalling the transfer.
//
// Example:
//
//	client := host.New(port,
//	    host.WithProgressCallback(func(p host.Progress) {
//	        fmt.Printf("[%s] %.1f%% - chunk %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentChunk, p.TotalChunks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the client.
// *slog.Logger satisfies it.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	client := host.New(port, host.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
