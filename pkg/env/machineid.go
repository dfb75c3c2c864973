package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

// AppID salts the machine id so the raw id is never published.
const AppID = "spine.go"

// MachineID identifies this machine. It falls back to the host name when
// the platform has no machine id.
func MachineID() string {
	if id, err := machineid.ProtectedID(AppID); err == nil {
		return id[:12]
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
