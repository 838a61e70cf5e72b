package hle

import (
	"hash/crc32"

	"github.com/thelolagemann/go-gamecube/internal/types"
	"github.com/thelolagemann/go-gamecube/pkg/log"
)

const (
	// MailInitialized is pushed by a ucode once it has finished its
	// register setup and is ready for commands.
	MailInitialized = 0xDCD1_0000
	// MailDone is pushed by a ucode when it has finished the task it
	// was given.
	MailDone = 0xDCD1_0003

	// MailNewUCode asks the resident ucode to receive and boot a
	// successor ucode image.
	MailNewUCode = 0xCDD1_0001
	// MailReset asks the resident ucode to hand control back to the
	// ROM ucode.
	MailReset = 0xCDD1_0002
)

// UCode identities. A ucode is identified by the IEEE CRC32 of its
// firmware image, which the factory uses to construct the matching
// high-level implementation.
const (
	IdentityROM     = 0x0000_0000
	IdentityCardGCN = 0x3389_A79E
	IdentityCardWii = 0x65D6_CC6F
)

// Identify returns the identity of a ucode firmware image.
func Identify(image []byte) uint32 {
	return crc32.ChecksumIEEE(image)
}

// UCode is one swappable firmware module run by the DSP. Exactly one
// ucode is resident at a time; MailReset and the boot-upload sequence
// replace it.
type UCode interface {
	types.Stater

	// Initialize performs the ucode's startup, typically pushing an
	// init mail.
	Initialize()
	// HandleMail processes one incoming 32-bit mail word.
	HandleMail(mail uint32)
	// Update is polled by the host loop; it raises a DSP interrupt
	// while outgoing mail is pending.
	Update()
	// Identity returns the identity code the ucode was constructed
	// from.
	Identity() uint32
}

// ucodeFromIdentity constructs the high-level implementation for a
// firmware identity. Unknown identities fall back to the ROM ucode.
func ucodeFromIdentity(hle *DSPHLE, identity uint32) UCode {
	switch identity {
	case IdentityCardGCN, IdentityCardWii:
		return newCardUCode(hle, identity)
	case IdentityROM:
		return newROMUCode(hle)
	default:
		hle.Warnf("DSPHLE - unknown ucode identity %08x, falling back to ROM", identity)
		return newROMUCode(hle)
	}
}

// bootParamCount is the number of mail words the boot sequence
// carries: destination/size/source triples for the MRAM, IRAM and
// DRAM sections of the successor image, plus its start PC.
const bootParamCount = 10

// Indices of the IRAM section descriptor within the boot parameters.
// The identity of the successor is computed over this section.
const (
	bootIRAMSource = 3
	bootIRAMSize   = 4
)

// baseUCode carries the behaviour shared by every ucode: the
// upload-in-progress flag and the boot-parameter collector it gates.
// While the flag is set, every incoming mail word belongs to the boot
// sequence, regardless of the ucode's own protocol state.
type baseUCode struct {
	hle *DSPHLE
	log.Logger

	uploadInProgress bool
	bootParams       [bootParamCount]uint32
	bootParamsRead   int
}

// prepareBootUCode consumes one mail word of the boot sequence. Once
// all parameters have arrived the successor image is identified from
// guest memory and made resident.
func (u *baseUCode) prepareBootUCode(mail uint32) {
	u.bootParams[u.bootParamsRead] = mail
	u.bootParamsRead++
	if u.bootParamsRead < bootParamCount {
		return
	}
	u.uploadInProgress = false
	u.bootParamsRead = 0

	source := u.bootParams[bootIRAMSource]
	size := u.bootParams[bootIRAMSize]
	image := u.hle.Memory.ReadBytes(source, int(size))
	identity := Identify(image)
	u.Infof("DSPHLE - booting ucode from %08x (%d bytes, identity %08x)", source, size, identity)
	u.hle.SetUCode(identity)
}

func (u *baseUCode) saveShared(s *types.State) {
	s.WriteBool(u.uploadInProgress)
}

func (u *baseUCode) loadShared(s *types.State) {
	u.uploadInProgress = s.ReadBool()
}
