// Package memory provides the main-memory ("MRAM") surface the DSP
// sees. The coprocessor is big-endian, so all multi-byte accesses are
// big-endian regardless of host byte order.
package memory

// Bus is the guest-memory collaborator surface required by the DSP:
// byte/word/dword reads and writes plus a raw bulk read for DMA-style
// copies.
type Bus interface {
	Read8(address uint32) uint8
	Read16(address uint32) uint16
	Read32(address uint32) uint32
	Write8(address uint32, value uint8)
	Write16(address uint32, value uint16)
	Write32(address uint32, value uint32)
	ReadBytes(address uint32, length int) []byte
}

// RAM is a flat block of big-endian memory. Addresses wrap modulo the
// size of the block.
type RAM struct {
	data []byte
}

// NewRAM creates a new RAM of the given size in bytes.
func NewRAM(size uint32) *RAM {
	return &RAM{data: make([]byte, size)}
}

var _ Bus = (*RAM)(nil)

func (r *RAM) index(address uint32) uint32 {
	return address % uint32(len(r.data))
}

func (r *RAM) Read8(address uint32) uint8 {
	return r.data[r.index(address)]
}

func (r *RAM) Read16(address uint32) uint16 {
	return uint16(r.Read8(address))<<8 | uint16(r.Read8(address+1))
}

func (r *RAM) Read32(address uint32) uint32 {
	return uint32(r.Read16(address))<<16 | uint32(r.Read16(address+2))
}

func (r *RAM) Write8(address uint32, value uint8) {
	r.data[r.index(address)] = value
}

func (r *RAM) Write16(address uint32, value uint16) {
	r.Write8(address, uint8(value>>8))
	r.Write8(address+1, uint8(value))
}

func (r *RAM) Write32(address uint32, value uint32) {
	r.Write16(address, uint16(value>>16))
	r.Write16(address+2, uint16(value))
}

// ReadBytes copies length bytes starting at address, wrapping at the
// end of RAM.
func (r *RAM) ReadBytes(address uint32, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = r.Read8(address + uint32(i))
	}
	return out
}

// WriteBytes copies data into RAM starting at address.
func (r *RAM) WriteBytes(address uint32, data []byte) {
	for i, b := range data {
		r.Write8(address+uint32(i), b)
	}
}

// Size returns the size of the RAM in bytes.
func (r *RAM) Size() uint32 {
	return uint32(len(r.data))
}
