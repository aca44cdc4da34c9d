// Package capture learns remote control buttons from an IR receiver's log.
//
// An ESPHome node with a remote_receiver and dump: pronto logs every code it
// sees. LogParser reassembles those codes from single- or multi-line dumps,
// and a Capturer counts them: when the same code turns up Threshold times
// among the last BufferSize receptions it is saved to the Store as a button.
// Repeats closer together than Debounce count once, since a held button
// repeats its frame.
//
// Codes that are valid Soleus frames are decoded and named after their
// state ("COOL 72F HIGH"); anything else gets a numbered name.
//
// Lines come from any io.Reader (ReaderSource) or from a websocket log
// stream such as the ESPHome dashboard (DialWebSocket). ExportESPHome turns
// the stored buttons into remote_transmitter template buttons.
package capture
