package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// Dump reads size bytes of cartridge memory starting at address and
// writes them to w, one CRC-checked block per request.
//
// The operation can be cancelled via context.
//
// Example:
//
//	f, _ := os.Create("game.bin")
//	defer f.Close()
//	err := client.Dump(ctx, 0, 0x400000, f)
func (c *Client) Dump(ctx context.Context, address uint32, size int, w io.Writer) error {
	if size <= 0 {
		return fmt.Errorf("dump size must be positive, got %d", size)
	}

	startTime := time.Now()
	chunkSize := c.config.ChunkSize
	totalChunks := (size + chunkSize - 1) / chunkSize

	c.reportProgress(Progress{
		Phase:       PhaseReading,
		TotalChunks: totalChunks,
	})

	done := 0
	for i := 0; done < size; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n := min(chunkSize, size-done)
		addr := address + uint32(done)
		block, err := c.ReadROM(ctx, addr, n)
		if err != nil {
			return fmt.Errorf("read block %d at 0x%06X: %w", i, addr, err)
		}
		if _, err := w.Write(block); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		done += n

		c.reportProgress(Progress{
			Phase:        PhaseReading,
			CurrentChunk: i + 1,
			TotalChunks:  totalChunks,
			Percentage:   float64(done) / float64(size) * 100,
			Bytes:        done,
			ElapsedTime:  time.Since(startTime),
		})
	}

	c.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentChunk: totalChunks,
		TotalChunks:  totalChunks,
		Percentage:   100,
		Bytes:        size,
		ElapsedTime:  time.Since(startTime),
	})

	c.logInfo("dump complete",
		"address", fmt.Sprintf("0x%06X", address),
		"bytes", size,
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// Program performs the complete flash programming sequence:
//  1. Identify the flash and check the image fits
//  2. Program the data chunk by chunk with progress tracking
//  3. Read every chunk back and compare, if enabled
//
// The flash must already be erased. The operation can be cancelled via
// context.
//
// Example:
//
//	img, _ := romimage.Parse("game.md")
//	if err := client.EraseFlash(ctx, true); err != nil {
//	    return err
//	}
//	err := client.Program(ctx, 0, img.Data)
func (c *Client) Program(ctx context.Context, address uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("data cannot be empty")
	}

	startTime := time.Now()
	chunkSize := c.config.ChunkSize
	totalChunks := (len(data) + chunkSize - 1) / chunkSize

	// Phase 1: Identify
	c.reportProgress(Progress{
		Phase:       PhaseIdentifying,
		TotalChunks: totalChunks,
	})

	info, err := c.FlashID(ctx)
	if err != nil {
		return fmt.Errorf("identify flash: %w", err)
	}
	c.logDebug("flash identified",
		"manufacturer", fmt.Sprintf("0x%02X", info.Manufacturer),
		"device", fmt.Sprintf("0x%02X", info.Device),
		"size", info.Size,
	)
	if info.Size != 0 && uint64(address)+uint64(len(data)) > uint64(info.Size) {
		return &SizeMismatchError{
			Address:   address,
			Length:    len(data),
			FlashSize: info.Size,
		}
	}

	// Phase 2: Program
	for i, off := 0, 0; off < len(data); i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n := min(chunkSize, len(data)-off)
		addr := address + uint32(off)
		if err := c.ProgramFlash(ctx, addr, data[off:off+n]); err != nil {
			return fmt.Errorf("program chunk %d at 0x%06X: %w", i, addr, err)
		}
		off += n

		c.reportProgress(Progress{
			Phase:        PhaseProgramming,
			CurrentChunk: i + 1,
			TotalChunks:  totalChunks,
			Percentage:   float64(off) / float64(len(data)) * 100,
			Bytes:        off,
			ElapsedTime:  time.Since(startTime),
		})
	}

	// Phase 3: Verify
	if c.config.VerifyAfterProgram {
		if err := c.verify(ctx, address, data, totalChunks, startTime); err != nil {
			return err
		}
	}

	c.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentChunk: totalChunks,
		TotalChunks:  totalChunks,
		Percentage:   100,
		Bytes:        len(data),
		ElapsedTime:  time.Since(startTime),
	})

	c.logInfo("programming complete",
		"address", fmt.Sprintf("0x%06X", address),
		"bytes", len(data),
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// verify reads back programmed data and reports the first differing byte.
func (c *Client) verify(ctx context.Context, address uint32, data []byte, totalChunks int, startTime time.Time) error {
	chunkSize := c.config.ChunkSize
	for i, off := 0, 0; off < len(data); i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n := min(chunkSize, len(data)-off)
		addr := address + uint32(off)
		got, err := c.ReadROM(ctx, addr, n)
		if err != nil {
			return fmt.Errorf("verify chunk %d at 0x%06X: %w", i, addr, err)
		}
		want := data[off : off+n]
		if !bytes.Equal(got, want) {
			for j := range want {
				if got[j] != want[j] {
					return &VerificationError{
						Address:  addr + uint32(j),
						Expected: want[j],
						Actual:   got[j],
					}
				}
			}
		}
		off += n

		c.reportProgress(Progress{
			Phase:        PhaseVerifying,
			CurrentChunk: i + 1,
			TotalChunks:  totalChunks,
			Percentage:   float64(off) / float64(len(data)) * 100,
			Bytes:        off,
			ElapsedTime:  time.Since(startTime),
		})
	}
	return nil
}
