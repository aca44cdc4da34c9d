package discovery

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type soleus-bridge advertises
	ServiceType = "_soleus-ir._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTP API port
	DefaultPort = 8088
)

// TXT record keys
const (
	txtUnits   = "units"
	txtHeat    = "heat"
	txtVersion = "version"
	txtPath    = "path"
)

// UnitInfo is what a bridge announces about one unit
type UnitInfo struct {
	Name         string
	SupportsHeat bool
}

// TXTRecords builds the TXT records announcing the given units.
// Unit names are sorted so that the records are stable.
func TXTRecords(units []UnitInfo, version string) []string {
	var names, heat []string
	for _, u := range units {
		names = append(names, u.Name)
		if u.SupportsHeat {
			heat = append(heat, u.Name)
		}
	}
	sort.Strings(names)
	sort.Strings(heat)

	txt := []string{
		txtPath + "=/api",
		txtUnits + "=" + strings.Join(names, ","),
	}
	if len(heat) > 0 {
		txt = append(txt, txtHeat+"="+strings.Join(heat, ","))
	}
	if version != "" {
		txt = append(txt, txtVersion+"="+version)
	}
	return txt
}

// DefaultInstance returns "soleus-bridge on <hostname>"
func DefaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "soleus-bridge"
	}
	return "soleus-bridge on " + strings.TrimSuffix(host, ".local")
}

// Advertiser announces the bridge HTTP API over mDNS
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers the service until Shutdown is called.
func Advertise(instance string, port int, units []UnitInfo, version string) (*Advertiser, error) {
	if instance == "" {
		instance = DefaultInstance()
	}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, TXTRecords(units, version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertiser) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for bridge discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices collects every bridge answering within the timeout
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var mu sync.Mutex
	seen := make(map[string]*Device)
	go func() {
		for entry := range entries {
			if device := s.parseServiceEntry(entry); device != nil {
				mu.Lock()
				seen[device.Instance] = device
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	devices := make([]*Device, 0, len(seen))
	for _, d := range seen {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Instance < devices[j].Instance })
	return devices, nil
}

// WaitForUnit returns the first bridge serving the named unit
func (s *Scanner) WaitForUnit(ctx context.Context, unit string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	deviceChan := make(chan *Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device != nil && device.HasUnit(unit) {
				select {
				case deviceChan <- device:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		select {
		case device := <-deviceChan:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("no bridge serving unit %s found within %s", unit, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil for entries without an address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Units:        splitList(metadata[txtUnits]),
		HeatUnits:    splitList(metadata[txtHeat]),
		Version:      metadata[txtVersion],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
