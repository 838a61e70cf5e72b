// Package aram emulates the auxiliary RAM attached to the DSP, along
// with the accelerator used to stream data in and out of it.
package aram

// Size is the size of the auxiliary RAM in bytes. (16 MiB)
const Size = 0x0100_0000

// ARAM is the DSP's auxiliary RAM. The main CPU has no direct access;
// everything goes through DMA or the Accelerator.
type ARAM struct {
	data []byte
}

// New creates a new, zero-filled ARAM.
func New() *ARAM {
	return &ARAM{data: make([]byte, Size)}
}

func (a *ARAM) Read8(address uint32) uint8 {
	return a.data[address%Size]
}

func (a *ARAM) Write8(address uint32, value uint8) {
	a.data[address%Size] = value
}

// Reset clears the ARAM to zero.
func (a *ARAM) Reset() {
	for i := range a.data {
		a.data[i] = 0
	}
}
