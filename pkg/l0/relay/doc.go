// Package relay forwards frames between the two boards.
//
// A Relay receives one direction's frames from an inbound stream, hands the
// payload to a Hook that may rewrite it, reseals the CRC and writes the
// frame to the outbound stream. Observers see every forwarded frame, which
// is how the capture and MQTT mirror components attach.
package relay
