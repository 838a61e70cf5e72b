package hle

import (
	"github.com/thelolagemann/go-gamecube/internal/types"
)

// MailROMInit is pushed by the ROM ucode when it takes over.
const MailROMInit = 0x8071_FEED

// ROMUCode is the firmware resident after a reset: its whole protocol
// is receiving the boot sequence for the next ucode. It is also the
// module the CARD ucode hands control back to on MailReset.
type ROMUCode struct {
	baseUCode
}

func newROMUCode(hle *DSPHLE) *ROMUCode {
	r := &ROMUCode{baseUCode{hle: hle, Logger: hle.Logger}}
	r.Infof("ROM ucode - initialized")
	return r
}

var _ UCode = (*ROMUCode)(nil)

func (r *ROMUCode) Identity() uint32 {
	return IdentityROM
}

func (r *ROMUCode) Initialize() {
	r.hle.Mailbox.Push(MailROMInit)
	r.uploadInProgress = true
}

func (r *ROMUCode) Update() {
	if r.hle.Mailbox.HasPending() {
		r.hle.RaiseInterrupt()
	}
}

func (r *ROMUCode) HandleMail(mail uint32) {
	r.prepareBootUCode(mail)
}

func (r *ROMUCode) Save(s *types.State) {
	r.saveShared(s)
}

func (r *ROMUCode) Load(s *types.State) {
	r.loadShared(s)
}
