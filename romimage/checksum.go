package romimage

// GenesisChecksum sums the big-endian words from 0x200 to the end of the
// image. A trailing odd byte counts as the high byte of a word.
func GenesisChecksum(data []byte) uint16 {
	var sum uint16
	for i := GenesisChecksumStart; i < len(data); i += 2 {
		w := uint16(data[i]) << 8
		if i+1 < len(data) {
			w |= uint16(data[i+1])
		}
		sum += w
	}
	return sum
}

// smsSizes maps the header's ROM size code to the checksummed length.
var smsSizes = map[byte]int{
	0xA: 0x2000,
	0xB: 0x4000,
	0xC: 0x8000,
	0xD: 0xC000,
	0xE: 0x10000,
	0xF: 0x20000,
	0x0: 0x40000,
	0x1: 0x80000,
	0x2: 0x100000,
}

// MasterSystemChecksum sums the bytes covered by the header's ROM size
// code, skipping the 16-byte header itself. It returns false when the
// header is missing, the size code is unknown, or the image is shorter
// than the size code claims.
func MasterSystemChecksum(data []byte, headerOffset int) (uint16, bool) {
	if headerOffset < 0 || headerOffset+smsHeaderSize > len(data) {
		return 0, false
	}
	size, ok := smsSizes[data[headerOffset+smsSizeField]&0x0F]
	if !ok || size > len(data) {
		return 0, false
	}

	var sum uint16
	for i := 0; i < size; i++ {
		if i >= headerOffset && i < headerOffset+smsHeaderSize {
			continue
		}
		sum += uint16(data[i])
	}
	return sum, true
}
