package sshexec

import (
	"encoding/binary"

	"golang.org/x/crypto/ssh"
)

// PTYModes configures a "pty-req" channel request (RFC 4254 §8). Modes
// reuses golang.org/x/crypto/ssh's TerminalModes encoding (opcode -> value,
// e.g. ssh.ECHO, ssh.TTY_OP_ISPEED) so callers already using that package
// for direct dialing don't need a second vocabulary.
type PTYModes struct {
	Term              string
	Width, Height     uint32
	WidthPx, HeightPx uint32
	Modes             ssh.TerminalModes
}

// defaultPTYModes is used when Options.PTY is the bool true: a vt100
// terminal with no dimensions and no mode overrides, matching what an
// interactive shell needs at minimum.
var defaultPTYModes = PTYModes{Term: "vt100"}

// resolvePTY turns the Options.PTY union (nil | bool | PTYModes) into an
// encoded pty-req payload, or nil if no PTY was requested.
func resolvePTY(v any) []byte {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		if !t {
			return nil
		}
		return encodePTYRequest(defaultPTYModes)
	case PTYModes:
		return encodePTYRequest(t)
	default:
		return nil
	}
}

// encodePTYRequest renders the pty-req payload: term string, terminal
// width/height in characters and pixels, and an opaque encoded-modes
// string terminated by TTY_OP_END (0).
func encodePTYRequest(m PTYModes) []byte {
	term := m.Term
	if term == "" {
		term = "vt100"
	}

	modes := encodeTerminalModes(m.Modes)

	buf := make([]byte, 0, 4+len(term)+16+4+len(modes))
	buf = append(buf, encodeWireString(term)...)
	buf = appendUint32(buf, m.Width)
	buf = appendUint32(buf, m.Height)
	buf = appendUint32(buf, m.WidthPx)
	buf = appendUint32(buf, m.HeightPx)
	buf = append(buf, encodeWireString(string(modes))...)
	return buf
}

// encodeWireString produces the SSH wire encoding of a string: a 4-byte
// big-endian length prefix followed by the raw bytes (RFC 4251 §5). A
// private copy of engine's unexported encodeString, since pty-req payload
// assembly belongs in this package, not engine.
func encodeWireString(s string) []byte {
	buf := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buf, uint32(len(s)))
	copy(buf[4:], s)
	return buf
}

// encodeTerminalModes renders a TerminalModes map as the opcode/uint32 pairs
// RFC 4254 §8 describes, terminated by the TTY_OP_END opcode (0). Key
// iteration order doesn't matter to an SSH server: each pair is
// self-describing.
func encodeTerminalModes(modes ssh.TerminalModes) []byte {
	buf := make([]byte, 0, 5*len(modes)+1)
	for op, val := range modes {
		buf = append(buf, op)
		buf = appendUint32(buf, val)
	}
	buf = append(buf, 0) // TTY_OP_END
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
