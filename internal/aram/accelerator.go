package aram

// Granularity selects the unit the accelerator transfers per access.
type Granularity uint8

const (
	// Word transfers 16 bits per access, big-endian.
	Word Granularity = iota
	// Nibble transfers 4 bits per access, high nibble of each byte
	// first.
	Nibble
)

// Streamer is the accelerator surface used by ucodes: a cursor over
// ARAM with configurable bounds and granularity.
//
// The cursor is a byte address shared between both granularities, so a
// word-mode write followed by a nibble-mode read from the same cursor
// streams back exactly the bytes that were written. Setting the cursor
// in nibble mode always starts on the high nibble.
type Streamer interface {
	SetGranularity(g Granularity)
	SetBounds(start, end uint32)
	SetCursor(address uint32)
	ReadNext() uint16
	WriteNext(value uint16)
}

// Accelerator is the one concrete Streamer, bound to an ARAM backing
// store. It is owned by whichever ucode routine configured it and must
// be reconfigured before each phase of use.
type Accelerator struct {
	ram *ARAM

	granularity Granularity
	start, end  uint32 // wraparound window, inclusive byte bounds
	cursor      uint32 // current byte address
	lowNibble   bool   // next nibble access uses the low half

	// OnRangeEnd is invoked whenever the cursor wraps from end back
	// to start. The hardware raises an interrupt here; firmware that
	// never intends to hit the end of its window treats this as a
	// fatal logic error.
	OnRangeEnd func()
}

// NewAccelerator creates an accelerator over the given ARAM, spanning
// the whole of it in word mode.
func NewAccelerator(ram *ARAM) *Accelerator {
	return &Accelerator{ram: ram, end: Size - 1}
}

var _ Streamer = (*Accelerator)(nil)

func (a *Accelerator) SetGranularity(g Granularity) {
	a.granularity = g
	a.lowNibble = false
}

// SetBounds sets the inclusive byte window the cursor wraps within.
func (a *Accelerator) SetBounds(start, end uint32) {
	a.start, a.end = start, end
}

// SetCursor positions the cursor at the given byte address. Nibble
// accesses restart on the high nibble.
func (a *Accelerator) SetCursor(address uint32) {
	a.cursor = address
	a.lowNibble = false
}

// offset returns the byte address n bytes past the cursor, wrapping
// modulo the window. Used for the low byte of a word access, which
// may sit on the far side of the window boundary.
func (a *Accelerator) offset(n uint32) uint32 {
	window := a.end - a.start + 1
	return a.start + (a.cursor-a.start+n)%window
}

// advance moves the cursor forward by n bytes, wrapping modulo the
// window (end - start + 1).
func (a *Accelerator) advance(n uint32) {
	window := a.end - a.start + 1
	offset := a.cursor - a.start + n
	if offset >= window {
		offset %= window
		if a.OnRangeEnd != nil {
			a.OnRangeEnd()
		}
	}
	a.cursor = a.start + offset
}

// ReadNext reads one unit at the cursor and advances it. In word mode
// the result is a big-endian 16-bit value; in nibble mode it is the
// next 4-bit value in the low bits.
func (a *Accelerator) ReadNext() uint16 {
	if a.granularity == Nibble {
		b := a.ram.Read8(a.cursor)
		if a.lowNibble {
			a.lowNibble = false
			a.advance(1)
			return uint16(b & 0x0F)
		}
		a.lowNibble = true
		return uint16(b >> 4)
	}

	value := uint16(a.ram.Read8(a.cursor))<<8 | uint16(a.ram.Read8(a.offset(1)))
	a.advance(2)
	return value
}

// WriteNext writes one unit at the cursor and advances it, mirroring
// ReadNext.
func (a *Accelerator) WriteNext(value uint16) {
	if a.granularity == Nibble {
		b := a.ram.Read8(a.cursor)
		if a.lowNibble {
			a.ram.Write8(a.cursor, b&0xF0|uint8(value&0x0F))
			a.lowNibble = false
			a.advance(1)
		} else {
			a.ram.Write8(a.cursor, b&0x0F|uint8(value&0x0F)<<4)
			a.lowNibble = true
		}
		return
	}

	a.ram.Write8(a.cursor, uint8(value>>8))
	a.ram.Write8(a.offset(1), uint8(value))
	a.advance(2)
}
