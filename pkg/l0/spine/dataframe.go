package spine

import "encoding/binary"

// Microphone layout of a body-board data frame.
const (
	MicrophoneCount           = 4
	MicrophoneSamplesPerFrame = 80
)

// Motor indexes B2HDataFrame.Motors.
type Motor int

// Motors.
const (
	MotorLeftWheel Motor = iota
	MotorRightWheel
	MotorLift
	MotorHead
	MotorCount
)

// CliffSensor indexes B2HDataFrame.CliffSense.
type CliffSensor int

// Cliff sensors.
const (
	CliffFrontLeft CliffSensor = iota
	CliffFrontRight
	CliffBackLeft
	CliffBackRight
	CliffSensorCount
)

// I2CAddress names the peripheral that failed the power-on self test.
type I2CAddress uint8

// Known faulting peripherals.
const (
	I2CNone         I2CAddress = 0
	I2CTimeOfFlight I2CAddress = 0x52
	I2CCliff        I2CAddress = 0xA6
)

// StatusFlags is the packed flag byte at offset 4 of a data frame.
type StatusFlags uint8

// Status bits, least significant first.
const (
	SensorsOn StatusFlags = 1 << iota
	EncodersOff
	HeadEncoderChanged
	LiftEncoderChanged
)

// Has reports whether all bits in mask are set.
func (f StatusFlags) Has(mask StatusFlags) bool {
	return f&mask == mask
}

// ChargeFlags is the packed battery condition word at offset 70.
type ChargeFlags uint16

// Charge bits, least significant first. Bit 4 and bits 7-15 are reserved
// and kept as received.
const (
	OnCharger ChargeFlags = 1 << iota
	Charging
	BatteryDisconnected
	BatteryOverheated
	chargeReserved1
	VoltageLow
	ShutdownImminent
)

// Has reports whether all bits in mask are set.
func (f ChargeFlags) Has(mask ChargeFlags) bool {
	return f&mask == mask
}

// VoltsPerCount scales the raw battery and charger readings.
const VoltsPerCount = 0.00136719

// MotorState is the encoder state of one motor.
type MotorState struct {
	// Position is the encoder count.
	Position int32
	// Delta is the change since the previous frame.
	Delta int32
	// Time is the tick count since the last change.
	Time uint32
}

// Proximity is the time-of-flight sensor block.
type Proximity struct {
	Status            uint8
	SigmaMM           uint8
	RangeMM           uint16
	SignalRateMCPS    uint16
	Ambient           uint16
	SPADCount         uint16
	SampleCount       uint16
	CalibrationResult uint32
}

// B2HDataFrame is the periodic telemetry record from the body board.
// Fields are in wire order; the encoding has no padding.
//
//	0 SequenceNumber     56 CliffSense    76 Proximity    104 Reserved
//	4 Status             64 BatteryVolt   92 TouchLevel   128 MicSamples
//	5 TemperatureStatus  66 ChargerVolt   96 MicError
//	6 I2CFault           68 Temperature  100 TouchLevel2
//	7 I2CFaultIndex      70 Charge
//	8 Motors             72 Unknown
type B2HDataFrame struct {
	SequenceNumber    uint32
	Status            StatusFlags
	TemperatureStatus uint8
	I2CFault          I2CAddress
	// I2CFaultIndex is the first failing cliff sensor when I2CFault is I2CCliff.
	I2CFaultIndex uint8
	Motors        [MotorCount]MotorState
	CliffSense    [CliffSensorCount]uint16
	BatteryVolt   int16
	ChargerVolt   int16
	Temperature   int16
	Charge        ChargeFlags
	Unknown       uint32
	Proximity     Proximity
	TouchLevel    [2]uint16
	MicError      [2]uint16
	TouchLevel2   [2]uint16
	Reserved      [24]byte
	MicSamples    [MicrophoneCount * MicrophoneSamplesPerFrame]int16
}

// BatteryVolts converts BatteryVolt to volts.
func (f *B2HDataFrame) BatteryVolts() float64 {
	return float64(f.BatteryVolt) * VoltsPerCount
}

// ChargerVolts converts ChargerVolt to volts.
func (f *B2HDataFrame) ChargerVolts() float64 {
	return float64(f.ChargerVolt) * VoltsPerCount
}

// EncodeTo writes the record into b in wire layout.
func (f *B2HDataFrame) EncodeTo(b []byte) error {
	if len(b) < DataFrameSize {
		return ErrShortBuffer
	}
	_, err := binary.Encode(b, binary.LittleEndian, f)
	return err
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *B2HDataFrame) MarshalBinary() ([]byte, error) {
	b := make([]byte, DataFrameSize)
	return b, f.EncodeTo(b)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *B2HDataFrame) UnmarshalBinary(b []byte) error {
	if len(b) < DataFrameSize {
		return ErrShortBuffer
	}
	_, err := binary.Decode(b, binary.LittleEndian, f)
	return err
}
