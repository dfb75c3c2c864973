package spine

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Describe renders a payload for humans. Known records are decoded, the
// rest is shown as hex.
func Describe(t MessageType, payload []byte) string {
	switch {
	case t == TypeAck && len(payload) == AckSize:
		var msg Ack
		if msg.UnmarshalBinary(payload) == nil {
			return fmt.Sprintf("ack %d", msg.Value)
		}
	case t == TypeDataCharacter && len(payload) == DataCharacterSize:
		var msg DataCharacter
		if msg.UnmarshalBinary(payload) == nil {
			return fmt.Sprintf("text %q", msg.String())
		}
	case t == TypeDataFrame && len(payload) == DataFrameSize:
		var msg B2HDataFrame
		if msg.UnmarshalBinary(payload) == nil {
			return describeDataFrame(&msg)
		}
	}
	if len(payload) == 0 {
		return t.String()
	}
	return fmt.Sprintf("%s %s", t, hex.EncodeToString(payload))
}

func describeDataFrame(f *B2HDataFrame) string {
	var flags []string
	for _, fl := range []struct {
		on   bool
		name string
	}{
		{f.Charge.Has(OnCharger), "on-charger"},
		{f.Charge.Has(Charging), "charging"},
		{f.Charge.Has(BatteryDisconnected), "battery-disconnected"},
		{f.Charge.Has(BatteryOverheated), "overheated"},
		{f.Charge.Has(VoltageLow), "low"},
		{f.Charge.Has(ShutdownImminent), "shutdown"},
	} {
		if fl.on {
			flags = append(flags, fl.name)
		}
	}
	s := fmt.Sprintf("frame #%d battery %.2fV charger %.2fV temp %d",
		f.SequenceNumber, f.BatteryVolts(), f.ChargerVolts(), f.Temperature)
	if len(flags) > 0 {
		s += " [" + strings.Join(flags, ",") + "]"
	}
	if f.I2CFault != I2CNone {
		s += fmt.Sprintf(" i2c-fault 0x%02x/%d", uint8(f.I2CFault), f.I2CFaultIndex)
	}
	return s
}
