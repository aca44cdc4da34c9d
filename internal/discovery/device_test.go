package discovery

import (
	"testing"
)

func TestDevice_String(t *testing.T) {
	device := &Device{
		Instance: "soleus-bridge on pi4",
		Hostname: "pi4.local.",
		IP:       "192.168.4.16",
		Port:     8088,
		Units:    []string{"bedroom", "office"},
	}

	expected := "soleus-bridge on pi4 (pi4.local.) at 192.168.4.16:8088 serving [bedroom office]"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name:     "IPv4",
			device:   &Device{IP: "192.168.4.16", Port: 8088},
			expected: "http://192.168.4.16:8088",
		},
		{
			name:     "IPv6",
			device:   &Device{IP: "fe80::1", Port: 8088},
			expected: "http://[fe80::1]:8088",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_Units(t *testing.T) {
	device := &Device{
		Units:     []string{"bedroom", "office"},
		HeatUnits: []string{"office"},
	}

	if !device.HasUnit("bedroom") || device.HasUnit("attic") {
		t.Errorf("HasUnit() wrong for %v", device.Units)
	}
	if device.SupportsHeat("bedroom") || !device.SupportsHeat("office") {
		t.Errorf("SupportsHeat() wrong for %v", device.HeatUnits)
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{Metadata: map[string]string{"path": "/api"}}
	if got := device.GetMetadata("path"); got != "/api" {
		t.Errorf("GetMetadata(path) = %q, want /api", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	empty := &Device{}
	if got := empty.GetMetadata("path"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q, want empty", got)
	}
}
