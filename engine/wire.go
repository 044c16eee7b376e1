package engine

import "encoding/binary"

// encodeString produces the SSH wire encoding of a string: a 4-byte
// big-endian length prefix followed by the raw bytes (RFC 4251 §5).
func encodeString(s string) []byte {
	buf := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buf, uint32(len(s)))
	copy(buf[4:], s)
	return buf
}

// encodeEnvRequest builds the payload for a channel "env" request:
// variable-name string followed by variable-value string.
func encodeEnvRequest(name, value string) []byte {
	n := encodeString(name)
	v := encodeString(value)
	buf := make([]byte, 0, len(n)+len(v))
	buf = append(buf, n...)
	buf = append(buf, v...)
	return buf
}
