package main

import (
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/thelolagemann/go-gamecube/internal/dsp/hle"
	"github.com/thelolagemann/go-gamecube/internal/memory"
	"github.com/thelolagemann/go-gamecube/internal/types"
	"github.com/thelolagemann/go-gamecube/pkg/utils"
)

// Guest-memory layout used for the request. Arbitrary; the hash only
// depends on the input bytes.
const (
	paramAddr  = 0x0000_0100
	outputAddr = 0x0000_0200
	inputAddr  = 0x0000_1000
)

func main() {
	inFile := flag.String("in", "", "The file containing the input data (gz/zip/7z are decompressed)")
	inHex := flag.String("hex", "", "The input data as a hex string (alternative to -in)")
	variant := flag.String("variant", "gcn", "The console variant to emulate. Can be gcn or wii")
	stateFile := flag.String("state", "", "Write a state snapshot to this file after the run")
	flag.Parse()

	var input []byte
	var err error
	switch {
	case *inHex != "":
		input, err = hex.DecodeString(*inHex)
	case *inFile != "":
		input, err = utils.LoadFile(*inFile)
	default:
		err = fmt.Errorf("one of -in or -hex is required")
	}
	if err != nil {
		panic(err)
	}
	if len(input) > 0xFFFF {
		panic(fmt.Errorf("input is %d bytes, the firmware accepts at most %d", len(input), 0xFFFF))
	}

	identity := uint32(hle.IdentityCardGCN)
	if types.StringToModel(*variant) == types.Wii {
		identity = hle.IdentityCardWii
	}

	mem := memory.NewRAM(0x0180_0000) // 24 MiB of main memory
	mem.WriteBytes(inputAddr, input)
	mem.Write32(paramAddr, inputAddr)
	mem.Write16(paramAddr+4, 0)
	mem.Write16(paramAddr+6, uint16(len(input)))
	mem.Write32(paramAddr+8, 0)
	mem.Write32(paramAddr+12, outputAddr)

	d := hle.New(mem)
	d.SetUCode(identity)
	if d.Mailbox.Next() != hle.MailInitialized {
		panic("ucode did not initialize")
	}

	d.HandleMail(hle.MailUnlockRequest)
	d.HandleMail(paramAddr)
	d.Update()
	if d.Mailbox.Next() != hle.MailDone {
		panic("ucode did not complete the unlock request")
	}

	fmt.Printf("%08x\n", mem.Read32(outputAddr))

	if *stateFile != "" {
		s := types.NewState()
		d.Save(s)
		if err := s.SaveToFile(*stateFile); err != nil {
			panic(err)
		}
	}
}
