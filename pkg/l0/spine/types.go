package spine

import "fmt"

// MessageType is the 16-bit message code. The two ASCII letters of a code
// appear on the wire in little-endian order, e.g. ack (0x6B61) is sent as
// 'a' 'k'.
type MessageType uint16

// Message types. Validity and payload size depend on the direction.
const (
	TypeDataCharacter  MessageType = 0x6364 // "dc"
	TypeDataFrame      MessageType = 0x6466 // "fd"
	TypeShutdown       MessageType = 0x6473 // "sd"
	TypeUpdateFirmware MessageType = 0x6675 // "uf"
	TypeMode           MessageType = 0x6D64 // "dm"
	TypeVersion        MessageType = 0x7276 // "vr"
	TypeLights         MessageType = 0x736C // "ls"
	TypeValidate       MessageType = 0x7374 // "ts"
	TypeErase          MessageType = 0x7878 // "xx"
	TypeBootFrame      MessageType = 0x6662 // "bf"
	TypeAck            MessageType = 0x6B61 // "ak"

	// TypeVS is sent by some development body-board firmware. It is in
	// neither size table, so it is invalid in both directions.
	TypeVS MessageType = 0x7376

	// TypeInvalid is returned by receive operations on any failure.
	TypeInvalid MessageType = 0xFFFF
)

var typeNames = map[MessageType]string{
	TypeDataCharacter:  "dataCharacter",
	TypeDataFrame:      "dataFrame",
	TypeShutdown:       "shutdown",
	TypeUpdateFirmware: "updateFirmware",
	TypeMode:           "mode",
	TypeVersion:        "version",
	TypeLights:         "lights",
	TypeValidate:       "validate",
	TypeErase:          "erase",
	TypeBootFrame:      "bootFrame",
	TypeAck:            "ack",
	TypeVS:             "vs",
	TypeInvalid:        "invalid",
}

// String implements fmt.Stringer.
func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(0x%04x)", uint16(t))
}

// Mnemonic returns the two code letters in the order they are sent.
func (t MessageType) Mnemonic() string {
	lo, hi := byte(t), byte(t>>8)
	if !printable(lo) || !printable(hi) {
		return fmt.Sprintf("%04x", uint16(t))
	}
	return string([]byte{lo, hi})
}

// ParseMessageType accepts a type name ("ack"), a mnemonic ("ak") or a
// hex code ("0x6b61").
func ParseMessageType(s string) (MessageType, error) {
	for t, name := range typeNames {
		if t != TypeInvalid && (name == s || t.Mnemonic() == s) {
			return t, nil
		}
	}
	var code uint16
	if _, err := fmt.Sscanf(s, "0x%x", &code); err == nil {
		return MessageType(code), nil
	}
	return TypeInvalid, fmt.Errorf("unknown message type %q", s)
}

func printable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}
