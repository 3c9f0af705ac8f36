package romimage

import "fmt"

// Console is the system a ROM image was built for.
type Console int

const (
	ConsoleUnknown Console = iota
	ConsoleGenesis
	ConsoleMasterSystem
)

func (c Console) String() string {
	switch c {
	case ConsoleUnknown:
		return "unknown"
	case ConsoleGenesis:
		return "genesis"
	case ConsoleMasterSystem:
		return "master system"
	default:
		return fmt.Sprintf("Console(%d)", int(c))
	}
}

// Image is a parsed cartridge ROM dump.
type Image struct {
	// Console is detected from the header signature
	Console Console

	// HeaderOffset is where the signature was found, -1 when none was
	HeaderOffset int

	// Title is the Genesis overseas title, or the domestic title when the
	// overseas one is blank. Empty for other consoles.
	Title string

	// Checksum is the checksum stored in the header
	Checksum uint16

	// Data is the raw image
	Data []byte
}

// ComputedChecksum recomputes the header checksum from Data. It returns
// false for consoles without a checksum rule.
func (img *Image) ComputedChecksum() (uint16, bool) {
	switch img.Console {
	case ConsoleGenesis:
		return GenesisChecksum(img.Data), true
	case ConsoleMasterSystem:
		return MasterSystemChecksum(img.Data, img.HeaderOffset)
	default:
		return 0, false
	}
}

// ChecksumValid reports whether the stored checksum matches the data.
func (img *Image) ChecksumValid() bool {
	sum, ok := img.ComputedChecksum()
	return ok && sum == img.Checksum
}

// FixChecksum writes the computed checksum into the header.
func (img *Image) FixChecksum() error {
	sum, ok := img.ComputedChecksum()
	if !ok {
		return fmt.Errorf("no checksum rule for %s images", img.Console)
	}
	switch img.Console {
	case ConsoleGenesis:
		putBE16(img.Data[GenesisChecksumOffset:], sum)
	case ConsoleMasterSystem:
		putLE16(img.Data[img.HeaderOffset+smsChecksumField:], sum)
	}
	img.Checksum = sum
	return nil
}

func putBE16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
