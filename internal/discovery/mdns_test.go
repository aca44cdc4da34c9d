package discovery

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name      string
		entry     *zeroconf.ServiceEntry
		wantNil   bool
		wantIP    string
		wantPort  int
		wantUnits []string
		wantHeat  []string
	}{
		{
			name: "bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "soleus-bridge on pi4"},
				HostName:      "pi4.local.",
				Port:          8088,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/api", "units=bedroom,office", "heat=office", "version=1.2.0"},
			},
			wantIP:    "192.168.4.16",
			wantPort:  8088,
			wantUnits: []string{"bedroom", "office"},
			wantHeat:  []string{"office"},
		},
		{
			name: "no port specified (should default to 8088)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "attic"},
				HostName:      "attic.local.",
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				Text:          []string{"units=attic"},
			},
			wantIP:    "10.0.0.5",
			wantPort:  8088,
			wantUnits: []string{"attic"},
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "pi4.local.",
				Port:     8088,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only bridge",
			entry: &zeroconf.ServiceEntry{
				HostName: "pi4.local.",
				Port:     8088,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"units= bedroom ,,"},
			},
			wantIP:    "fe80::1",
			wantPort:  8088,
			wantUnits: []string{"bedroom"},
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				HostName: "pi4.local.",
				Port:     9000,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 9000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}

			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}

			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}

			if !reflect.DeepEqual(device.Units, tt.wantUnits) {
				t.Errorf("device.Units = %v, want %v", device.Units, tt.wantUnits)
			}

			if !reflect.DeepEqual(device.HeatUnits, tt.wantHeat) {
				t.Errorf("device.HeatUnits = %v, want %v", device.HeatUnits, tt.wantHeat)
			}

			if device.Instance != tt.entry.Instance {
				t.Errorf("device.Instance = %v, want %v", device.Instance, tt.entry.Instance)
			}

			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		HostName: "pi4.local.",
		Port:     8088,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"path=/api", "units=bedroom", "flag", "version=1.0"},
	}

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expectedMetadata := map[string]string{
		"path":    "/api",
		"units":   "bedroom",
		"flag":    "", // Key without value
		"version": "1.0",
	}

	if !reflect.DeepEqual(device.Metadata, expectedMetadata) {
		t.Errorf("device.Metadata = %v, want %v", device.Metadata, expectedMetadata)
	}
	if device.Version != "1.0" {
		t.Errorf("device.Version = %q, want 1.0", device.Version)
	}
}

func TestTXTRecords(t *testing.T) {
	tests := []struct {
		name    string
		units   []UnitInfo
		version string
		want    []string
	}{
		{
			name:    "cool only",
			units:   []UnitInfo{{Name: "bedroom"}},
			version: "1.0.0",
			want:    []string{"path=/api", "units=bedroom", "version=1.0.0"},
		},
		{
			name:  "sorted with heat",
			units: []UnitInfo{{Name: "office", SupportsHeat: true}, {Name: "bedroom"}},
			want:  []string{"path=/api", "units=bedroom,office", "heat=office"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TXTRecords(tt.units, tt.version); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TXTRecords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTXTRecordsRoundTrip(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     TXTRecords([]UnitInfo{{Name: "bedroom"}, {Name: "office", SupportsHeat: true}}, "dev"),
	}
	device := NewScanner().parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if !device.HasUnit("office") || !device.SupportsHeat("office") || device.SupportsHeat("bedroom") {
		t.Errorf("device = %+v", device)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiserShutdownNil(t *testing.T) {
	var a *Advertiser
	a.Shutdown()
}

// Live announce/browse needs multicast and is left to manual testing:
// soleus-bridge run in one shell, soleus-ir scan in another.
