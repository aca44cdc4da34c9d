// Package logging provides structured logging for the Soleus tools.
//
// This package wraps a global zap logger with convenience functions for the
// messages the bridge, the HTTP API and the transmitters emit. The codec
// packages (protocol, pulse) never log; everything around them does.
//
// # Log Levels
//
//   - Debug: pulse timings, MQTT payloads, serial bytes, websocket traffic
//   - Info: frames sent and received, connections, state changes
//   - Warn: rejected frames, reconnects, partial decodes
//   - Error: startup failures, transmit failures
//
// # Silent by Default
//
// Nothing is logged unless a level is passed to Initialize or the
// SOLEUS_LOG_LEVEL environment variable is set:
//
//	SOLEUS_LOG_LEVEL=debug soleus-ir send --unit bedroom --mode cool --temp 22
//
// # Specialized Logging
//
//	logging.LogFrame("bedroom", "tx", frame.Bytes())
//	logging.LogPulses("bedroom", "tx", seq)
//	logging.LogMQTT("rx", topic, payload)
//
// Output goes to stderr in zap's console format so stdout stays clean for
// command output.
package logging
