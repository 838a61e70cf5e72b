package memory

import (
	"testing"
)

func TestRAM(t *testing.T) {
	r := NewRAM(0x1000)

	t.Run("big endian", func(t *testing.T) {
		r.Write32(0x10, 0x0123_4567)
		if got := r.Read8(0x10); got != 0x01 {
			t.Errorf("expected the high byte first, got 0x%02X", got)
		}
		if got := r.Read16(0x12); got != 0x4567 {
			t.Errorf("expected 0x4567, got 0x%04X", got)
		}
		if got := r.Read32(0x10); got != 0x0123_4567 {
			t.Errorf("expected 0x01234567, got 0x%08X", got)
		}
	})

	t.Run("bulk", func(t *testing.T) {
		r.WriteBytes(0x20, []byte{0xAA, 0xBB, 0xCC})
		got := r.ReadBytes(0x20, 3)
		if got[0] != 0xAA || got[1] != 0xBB || got[2] != 0xCC {
			t.Errorf("expected AA BB CC, got % X", got)
		}
	})

	t.Run("address wrap", func(t *testing.T) {
		r.Write8(0x1000+0x30, 0x5A)
		if got := r.Read8(0x30); got != 0x5A {
			t.Errorf("expected addresses to wrap at the RAM size, got 0x%02X", got)
		}
	})
}
