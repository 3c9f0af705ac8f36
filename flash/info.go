package flash

import "fmt"

// JEDEC manufacturer codes recognized by the size table.
const (
	Microchip = 0xBF
	Macronix  = 0xC2
)

// Info identifies a flash chip. Size is zero when the manufacturer/device
// pair is not in the table; that is a normal outcome, not an error.
type Info struct {
	Manufacturer uint8
	Device       uint8
	Size         uint32
	Part         string
}

// Known reports whether the chip was classified.
func (i Info) Known() bool {
	return i.Size != 0
}

func (i Info) String() string {
	if !i.Known() {
		return fmt.Sprintf("unknown flash (mfr 0x%02X dev 0x%02X)", i.Manufacturer, i.Device)
	}
	return fmt.Sprintf("%s (mfr 0x%02X dev 0x%02X, %d KiB)", i.Part, i.Manufacturer, i.Device, i.Size/1024)
}

type part struct {
	name string
	size uint32
}

var parts = map[[2]uint8]part{
	{Microchip, 0x6D}: {"SST39VF6401B", 0x800000},
	{Microchip, 0x6C}: {"SST39VF6402B", 0x800000},
	{Microchip, 0x5D}: {"SST39VF3201B", 0x400000},
	{Microchip, 0x5C}: {"SST39VF3202B", 0x400000},
	{Microchip, 0x5B}: {"SST39VF3201", 0x400000},
	{Microchip, 0x5A}: {"SST39VF3202", 0x400000},
	{Microchip, 0x4F}: {"SST39VF1601C", 0x200000},
	{Microchip, 0x4E}: {"SST39VF1602C", 0x200000},
	{Microchip, 0x4B}: {"SST39VF1601", 0x200000},
	{Microchip, 0x4A}: {"SST39VF1602", 0x200000},

	// 3.3V parts, one per board
	{Macronix, 0xC9}: {"MX29LV640ET", 0x800000},
	{Macronix, 0xCB}: {"MX29LV640EB", 0x800000},
	{Macronix, 0xA7}: {"MX29LV320ET", 0x400000},
	{Macronix, 0xA8}: {"MX29LV320EB", 0x400000},
	{Macronix, 0xC4}: {"MX29LV160DT", 0x400000},
	{Macronix, 0x49}: {"MX29LV160DB", 0x400000},

	// 5V parts
	{Macronix, 0x58}: {"MX29F800CT", 0x100000},
	{Macronix, 0xD6}: {"MX29F800CB", 0x100000},
	{Macronix, 0x23}: {"MX29F400CT", 0x80000},
	{Macronix, 0xAB}: {"MX29F400CB", 0x80000},
	{Macronix, 0x51}: {"MX29F200CT", 0x80000},
	{Macronix, 0x57}: {"MX29F200CB", 0x80000},
}

// Identify classifies a manufacturer/device pair read in software ID mode.
func Identify(manufacturer, device uint8) Info {
	info := Info{Manufacturer: manufacturer, Device: device}
	if p, ok := parts[[2]uint8{manufacturer, device}]; ok {
		info.Size = p.size
		info.Part = p.name
	}
	return info
}
