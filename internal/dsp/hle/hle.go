// Package hle provides a high-level emulation of the DSP: instead of
// interpreting firmware instruction by instruction, each known
// firmware image is replaced with a behaviourally equivalent
// reimplementation keyed by the image's identity.
package hle

import (
	"github.com/thelolagemann/go-gamecube/internal/aram"
	"github.com/thelolagemann/go-gamecube/internal/dsp"
	"github.com/thelolagemann/go-gamecube/internal/memory"
	"github.com/thelolagemann/go-gamecube/internal/types"
	"github.com/thelolagemann/go-gamecube/pkg/log"
)

// DSPHLE owns the emulated DSP's collaborators: guest memory, the
// auxiliary RAM and its accelerator, the outgoing mailbox, and the
// resident ucode. It is single-threaded; HandleMail and Update are
// both driven by the surrounding emulator loop.
type DSPHLE struct {
	log.Logger

	Memory  memory.Bus
	ARAM    *aram.ARAM
	Mailbox *dsp.MailHandler

	accelerator *aram.Accelerator
	ucode       UCode
	interrupt   func()
}

type Opt func(d *DSPHLE)

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Opt {
	return func(d *DSPHLE) {
		d.Logger = l
	}
}

// WithInterrupt sets the callback used to raise a DSP interrupt on
// the host CPU when outgoing mail is pending.
func WithInterrupt(irq func()) Opt {
	return func(d *DSPHLE) {
		d.interrupt = irq
	}
}

// New creates a DSPHLE over the given guest memory. The ROM ucode is
// resident until SetUCode or a boot sequence replaces it.
func New(mem memory.Bus, opts ...Opt) *DSPHLE {
	d := &DSPHLE{
		Logger:    log.New(),
		Memory:    mem,
		ARAM:      aram.New(),
		Mailbox:   dsp.NewMailHandler(),
		interrupt: func() {},
	}
	d.accelerator = aram.NewAccelerator(d.ARAM)
	for _, opt := range opts {
		opt(d)
	}
	d.SetUCode(IdentityROM)
	return d
}

// SetUCode makes the ucode with the given identity resident,
// discarding the previous ucode's state and any unread mail.
func (d *DSPHLE) SetUCode(identity uint32) {
	d.Mailbox.Clear()
	d.ucode = ucodeFromIdentity(d, identity)
	d.ucode.Initialize()
}

// Boot identifies a firmware image and makes the matching ucode
// resident.
func (d *DSPHLE) Boot(image []byte) {
	d.SetUCode(Identify(image))
}

// UCode returns the resident ucode.
func (d *DSPHLE) UCode() UCode {
	return d.ucode
}

// Accelerator returns the ARAM accelerator.
func (d *DSPHLE) Accelerator() *aram.Accelerator {
	return d.accelerator
}

// HandleMail delivers one 32-bit mail word from the CPU to the
// resident ucode.
func (d *DSPHLE) HandleMail(mail uint32) {
	d.ucode.HandleMail(mail)
}

// Update polls the resident ucode. Safe to call at any rate.
func (d *DSPHLE) Update() {
	d.ucode.Update()
}

// RaiseInterrupt signals the host CPU that the DSP wants attention.
func (d *DSPHLE) RaiseInterrupt() {
	d.interrupt()
}

var _ types.Stater = (*DSPHLE)(nil)

// Save writes the resident ucode's identity and state. Per-request
// working state (accelerator cursor, hash registers) is always
// rebuilt from scratch and is not part of a snapshot.
func (d *DSPHLE) Save(s *types.State) {
	s.Write32(d.ucode.Identity())
	d.ucode.Save(s)
}

// Load restores the resident ucode from a snapshot without running
// its Initialize, so no init mail is replayed.
func (d *DSPHLE) Load(s *types.State) {
	d.Mailbox.Clear()
	d.ucode = ucodeFromIdentity(d, s.Read32())
	d.ucode.Load(s)
}
