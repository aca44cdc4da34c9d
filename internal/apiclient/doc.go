// Package apiclient is a client for the HTTP API of soleus-bridge.
//
// Requests are retried with exponential backoff when the failure is
// transient: timeouts, refused connections and 5xx responses. A 502 means
// the bridge accepted the state but its IR blaster failed. Rejections (an
// unknown unit, a mode the unit lacks) come back as 4xx and are not retried.
//
// # Usage Example
//
//	client := apiclient.NewClientWithURL(device.BaseURL())
//	st, err := client.SetState(ctx, "bedroom", state)
//	if err != nil {
//	    for _, tip := range apiclient.TroubleshootingHints(err) {
//	        fmt.Println(tip)
//	    }
//	}
package apiclient
