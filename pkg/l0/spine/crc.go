package spine

import (
	"encoding/binary"
	"hash/crc32"
)

// Checksum computes the frame CRC over payload: reflected IEEE polynomial,
// register preset to 0xFFFFFFFF, no final XOR.
func Checksum(payload []byte) uint32 {
	// ChecksumIEEE applies the final inversion; undo it.
	return ^crc32.ChecksumIEEE(payload)
}

// readCRC returns the trailer of a frame with the given payload size.
func readCRC(buf []byte, payloadSize int) uint32 {
	return binary.LittleEndian.Uint32(buf[PayloadOffset+payloadSize:])
}

// writeCRC computes the checksum of the payload in buf and stores it in the
// trailer.
func writeCRC(buf []byte, payloadSize int) uint32 {
	crc := Checksum(buf[PayloadOffset : PayloadOffset+payloadSize])
	binary.LittleEndian.PutUint32(buf[PayloadOffset+payloadSize:], crc)
	return crc
}
