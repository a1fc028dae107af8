package config

import (
	"fmt"
	"net"

	"github.com/google/uuid"
)

// ResolveDeviceID returns the configured id, else one derived from the first
// hardware interface, else a random one.
func (c *DeviceConfig) ResolveDeviceID() string {
	ifaces, _ := net.Interfaces()
	return resolveDeviceID(c.DeviceID, ifaces)
}

func resolveDeviceID(configured string, ifaces []net.Interface) string {
	if configured != "" {
		return configured
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 || len(ifc.HardwareAddr) != 6 {
			continue
		}
		m := ifc.HardwareAddr
		return fmt.Sprintf("rwv-%02x%02x%02x%02x%02x%02x", m[0], m[1], m[2], m[3], m[4], m[5])
	}
	return "rwv-" + uuid.NewString()[:8]
}
