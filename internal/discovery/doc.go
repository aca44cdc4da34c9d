// Package discovery announces and finds soleus-bridge instances over mDNS.
//
// A running bridge registers a "_soleus-ir._tcp" service pointing at its
// HTTP API. The TXT records name the units it serves:
//
//	path=/api
//	units=bedroom,office
//	heat=office
//	version=1.2.0
//
// "heat" lists the units of the heat/cool variant and is omitted when there
// are none.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	devices, err := scanner.ScanForDevices(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Println(d.BaseURL(), d.Units)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The bridge must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
