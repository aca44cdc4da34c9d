package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a soleus-bridge found on the network
type Device struct {
	// Instance is the mDNS instance name (e.g., "soleus-bridge on pi4")
	Instance string

	// Hostname is the mDNS hostname (e.g., "pi4.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 when the bridge has none
	IP string

	// Port is the HTTP API port (typically 8088)
	Port int

	// Units lists the air conditioners served by the bridge
	Units []string

	// HeatUnits lists the units of the heat/cool variant
	HeatUnits []string

	// Version is the bridge version
	Version string

	// Metadata contains all mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d serving %v", d.Instance, d.Hostname, d.IP, d.Port, d.Units)
}

// BaseURL returns the HTTP API base URL of the bridge
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// HasUnit reports whether the bridge serves the named unit
func (d *Device) HasUnit(name string) bool {
	return contains(d.Units, name)
}

// SupportsHeat reports whether the named unit is a heat/cool variant
func (d *Device) SupportsHeat(name string) bool {
	return contains(d.HeatUnits, name)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
