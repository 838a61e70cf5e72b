package hle

import (
	"github.com/thelolagemann/go-gamecube/internal/types"
)

// MailUnlockRequest starts a card unlock request. The ucode replies
// with nothing and waits for the parameter-record address.
const MailUnlockRequest = 0xFF00_0000

type cardState uint8

const (
	waitingForRequest cardState = iota
	waitingForAddress
	waitingForNextTask
)

// cardParameters is one unlock request, read as a fixed 16-byte
// record from guest memory.
type cardParameters struct {
	sourceAddr uint32 // main-memory address of the input data
	unused     uint16 // read but never acted on
	inputSize  uint16 // input length in bytes
	workAddr   uint32 // ARAM address the hash routine works in
	outputAddr uint32 // main-memory address receiving the 4-byte hash
}

// CARDUCode implements the memory-card unlock firmware: it computes a
// 32-bit hash over caller-supplied data, which the card library
// compares against the card's own computation to authenticate access.
type CARDUCode struct {
	baseUCode

	state   cardState
	variant types.Model
	mask    uint32 // main-memory address mask of the variant
}

func newCardUCode(hle *DSPHLE, identity uint32) *CARDUCode {
	variant := types.GCN
	if identity == IdentityCardWii {
		variant = types.Wii
	}
	c := &CARDUCode{
		baseUCode: baseUCode{hle: hle, Logger: hle.Logger},
		variant:   variant,
		mask:      variant.RAMMask(),
	}
	c.Infof("CARD ucode - initialized (%s)", variant)
	return c
}

var _ UCode = (*CARDUCode)(nil)

func (c *CARDUCode) Identity() uint32 {
	if c.variant == types.Wii {
		return IdentityCardWii
	}
	return IdentityCardGCN
}

func (c *CARDUCode) Initialize() {
	c.hle.Mailbox.Push(MailInitialized)
	c.state = waitingForRequest
}

func (c *CARDUCode) Update() {
	if c.hle.Mailbox.HasPending() {
		c.hle.RaiseInterrupt()
	}
}

func (c *CARDUCode) HandleMail(mail uint32) {
	if c.uploadInProgress {
		c.prepareBootUCode(mail)
		return
	}

	switch c.state {
	case waitingForRequest:
		if mail == MailUnlockRequest {
			c.Infof("CARD ucode - received unlock command")
			c.state = waitingForAddress
		} else {
			c.Warnf("CARD ucode - expected unlock command but got %08x", mail)
		}
	case waitingForAddress:
		address := mail & c.mask
		params := c.readParameters(address)
		c.Infof("CARD ucode - reading unlock parameters from %08x (%08x)", address, mail)
		c.Infof("Input address: %08x", params.sourceAddr)
		c.Infof("Unused: %04x", params.unused)
		c.Infof("Input size: %04x", params.inputSize)
		c.Infof("ARAM work address: %08x", params.workAddr)
		c.Infof("Output address: %08x", params.outputAddr)

		if params.inputSize < 2 {
			// sizes 0 and 1 never occur in real card libraries, but
			// the hardware routine still runs and its (buggy) output
			// is reproduced below rather than guessed at
			c.Warnf("CARD ucode - undersized input (%d bytes)", params.inputSize)
		}

		hash := c.computeUnlockHash(params)
		c.hle.Memory.Write32(params.outputAddr, hash)

		c.hle.Mailbox.Push(MailDone)
		c.state = waitingForNextTask
	case waitingForNextTask:
		// the firmware compares these words exactly, with no masking
		switch mail {
		case MailNewUCode:
			c.Infof("CARD ucode - preparing successor ucode upload")
			c.uploadInProgress = true
		case MailReset:
			c.Infof("CARD ucode - switching to ROM ucode")
			c.hle.SetUCode(IdentityROM)
		default:
			c.Warnf("CARD ucode - expected ucode upload or reset but got %08x", mail)
		}
	}
}

// readParameters decodes the 16-byte parameter record at address.
// Field offsets and big-endian byte order match the DMA the firmware
// performs, including the read of the unused halfword.
func (c *CARDUCode) readParameters(address uint32) cardParameters {
	return cardParameters{
		sourceAddr: c.hle.Memory.Read32(address),
		unused:     c.hle.Memory.Read16(address + 4),
		inputSize:  c.hle.Memory.Read16(address + 6),
		workAddr:   c.hle.Memory.Read32(address + 8),
		outputAddr: c.hle.Memory.Read32(address + 12),
	}
}

func (c *CARDUCode) Save(s *types.State) {
	c.saveShared(s)
	s.Write8(uint8(c.state))
}

func (c *CARDUCode) Load(s *types.State) {
	c.loadShared(s)
	c.state = cardState(s.Read8())
}
