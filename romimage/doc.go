// Package romimage loads and saves raw cartridge ROM images.
//
// # Header Detection
//
// Genesis / Mega Drive images carry "SEGA" at 0x100, followed by the
// titles and a big-endian checksum at 0x18E:
//
//	0x100  console name   "SEGA MEGA DRIVE "
//	0x120  domestic title (48 bytes)
//	0x150  overseas title (48 bytes)
//	0x18E  checksum       sum of big-endian words from 0x200
//
// Master System images carry "TMR SEGA" at 0x7FF0, 0x3FF0 or 0x1FF0. The
// 16-byte header holds a little-endian checksum at +0x0A and the ROM size
// code in the low nibble of +0x0F.
//
// # Usage
//
//	img, err := romimage.Parse("sonic.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !img.ChecksumValid() {
//	    img.FixChecksum()
//	}
//	err = client.Program(ctx, 0, img.Data)
//
// Dumps are saved with Write:
//
//	var buf bytes.Buffer
//	client.Dump(ctx, 0, size, &buf)
//	img, _ := romimage.ParseBytes(buf.Bytes())
//	romimage.Write("dump.bin", img)
package romimage
