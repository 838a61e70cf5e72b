package types

import "strings"

type Model int // The Model used in emulation.

const (
	Unset Model = iota // Unset - Model hasn't been set - behaves as GCN
	GCN                // GCN - GameCube
	Wii                // Wii - Wii in GameCube compatibility mode
)

var ModelNames = map[Model]string{
	Unset: "Unset",
	GCN:   "GCN",
	Wii:   "WII",
}

// StringToModel converts a string to a Model.
func StringToModel(s string) Model {
	for m, n := range ModelNames {
		if n == strings.ToUpper(s) {
			return m
		}
	}

	return Unset
}

func (m Model) String() string {
	return ModelNames[m]
}

// RAMMask returns the physical address mask the DSP applies to
// main-memory addresses received over the mailbox. The GameCube DSP
// masks to 28 bits, the Wii to 30 bits.
func (m Model) RAMMask() uint32 {
	if m == Wii {
		return 0x3FFF_FFFF
	}
	return 0x0FFF_FFFF
}
