package romimage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header layout constants.
const (
	// GenesisHeaderOffset is where the "SEGA" console name starts
	GenesisHeaderOffset = 0x100

	// GenesisDomesticTitle and GenesisOverseasTitle are the 48-byte title fields
	GenesisDomesticTitle = 0x120
	GenesisOverseasTitle = 0x150
	genesisTitleSize     = 48

	// GenesisChecksumOffset holds the big-endian header checksum
	GenesisChecksumOffset = 0x18E

	// GenesisChecksumStart is the first byte covered by the checksum
	GenesisChecksumStart = 0x200

	smsHeaderSize    = 16
	smsChecksumField = 0x0A
	smsSizeField     = 0x0F

	// MaxSize is the largest image that fits a supported flash chip
	MaxSize = 0x800000
)

var (
	genesisSignature = []byte("SEGA")
	smsSignature     = []byte("TMR SEGA")

	// MasterSystemHeaderOffsets are the header locations probed, in order.
	MasterSystemHeaderOffsets = []int{0x7FF0, 0x3FF0, 0x1FF0}
)

// Parse reads a ROM image from the given file path.
//
// Example:
//
//	img, err := romimage.Parse("sonic.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %q\n", img.Console, img.Title)
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader reads a ROM image from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes identifies an in-memory image. The image keeps data.
func ParseBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("image too large: more than %d bytes", MaxSize)
	}

	img := &Image{
		Console:      Detect(data),
		HeaderOffset: -1,
		Data:         data,
	}

	switch img.Console {
	case ConsoleGenesis:
		img.HeaderOffset = GenesisHeaderOffset
		img.Title = genesisTitle(data)
		if len(data) >= GenesisChecksumOffset+2 {
			img.Checksum = uint16(data[GenesisChecksumOffset])<<8 | uint16(data[GenesisChecksumOffset+1])
		}
	case ConsoleMasterSystem:
		img.HeaderOffset = masterSystemHeader(data)
		field := img.HeaderOffset + smsChecksumField
		img.Checksum = uint16(data[field]) | uint16(data[field+1])<<8
	}

	return img, nil
}

// Detect returns the console whose header signature data carries.
func Detect(data []byte) Console {
	if hasAt(data, GenesisHeaderOffset, genesisSignature) {
		return ConsoleGenesis
	}
	if masterSystemHeader(data) >= 0 {
		return ConsoleMasterSystem
	}
	return ConsoleUnknown
}

func masterSystemHeader(data []byte) int {
	for _, off := range MasterSystemHeaderOffsets {
		if off+smsHeaderSize <= len(data) && hasAt(data, off, smsSignature) {
			return off
		}
	}
	return -1
}

func hasAt(data []byte, off int, sig []byte) bool {
	return off+len(sig) <= len(data) && bytes.Equal(data[off:off+len(sig)], sig)
}

func genesisTitle(data []byte) string {
	field := func(off int) string {
		if off+genesisTitleSize > len(data) {
			return ""
		}
		raw := strings.ReplaceAll(string(data[off:off+genesisTitleSize]), "\x00", " ")
		return strings.Join(strings.Fields(raw), " ")
	}
	if t := field(GenesisOverseasTitle); t != "" {
		return t
	}
	return field(GenesisDomesticTitle)
}

// Write saves the image data to path.
func Write(path string, img *Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// WriteTo writes the image data to w.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.Data)
	return int64(n), err
}
