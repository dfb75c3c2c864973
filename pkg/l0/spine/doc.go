// Package spine provides the L0 framing protocol between the head board
// and the body board.
//
// Every frame on the link has the same layout in both directions:
//
//	sync(0xAA) | tag(3) | type(u16 LE) | size(u16 LE) | payload(size) | crc(u32 LE)
//
// The tag is "H2B" for frames sent by the head board and "B2H" for frames
// sent by the body board. Each direction has a closed table mapping a
// message type to its fixed payload size; a frame whose type is missing
// from the table, or whose size disagrees with it, is rejected.
//
// The CRC covers the payload only. It is the reflected IEEE polynomial with
// the register preset to 0xFFFFFFFF and no final inversion (CRC-32/JAMCRC).
//
// A Channel owns the staging buffer of one direction. It is not safe for
// concurrent use: run at most one receive or encode per Channel at a time.
package spine
