// Package urls provides the documentation URLs printed in help texts and
// troubleshooting hints, so they are kept in one place.
//
// Usage:
//
//	import "github.com/muurk/soleus/internal/urls"
//
//	fmt.Printf("Receiver setup: %s\n", urls.ESPHomeRemoteReceiver)
package urls
