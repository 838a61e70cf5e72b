// Package dsp provides the mailbox plumbing shared by the DSP
// high-level emulation: a FIFO of 32-bit mail words from the DSP to
// the CPU, drained by the host one word at a time.
package dsp

// MailHandler queues outgoing mail words until the CPU reads them.
// The CPU is notified that mail is waiting via a DSP interrupt, raised
// by whoever polls HasPending.
type MailHandler struct {
	pending []uint32
}

// NewMailHandler creates an empty mail queue.
func NewMailHandler() *MailHandler {
	return &MailHandler{}
}

// Push queues a mail word for the CPU.
func (m *MailHandler) Push(mail uint32) {
	m.pending = append(m.pending, mail)
}

// HasPending reports whether any mail is waiting to be read.
func (m *MailHandler) HasPending() bool {
	return len(m.pending) > 0
}

// Peek returns the next mail word without consuming it, or 0 if none
// is pending.
func (m *MailHandler) Peek() uint32 {
	if len(m.pending) == 0 {
		return 0
	}
	return m.pending[0]
}

// Next consumes and returns the next mail word, or 0 if none is
// pending.
func (m *MailHandler) Next() uint32 {
	if len(m.pending) == 0 {
		return 0
	}
	mail := m.pending[0]
	m.pending = m.pending[1:]
	return mail
}

// Clear drops all pending mail. Used when the active ucode is
// replaced.
func (m *MailHandler) Clear() {
	m.pending = m.pending[:0]
}
