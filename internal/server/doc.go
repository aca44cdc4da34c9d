// Package server implements the HTTP API of soleus-bridge.
//
// Every unit served by the bridge can be inspected and controlled over plain
// JSON. Endpoints take an optional ?unit= parameter; without it the default
// unit (or the only unit) is used.
//
// # Endpoints
//
//	GET  /api/units    all units with state, frame and traits
//	GET  /api/state    {unit, state, frame, rule}
//	PUT  /api/state    merge a partial state and transmit it
//	GET  /api/traits   modes, fan modes, presets and temperature range
//	GET  /api/frame    the current frame, annotated, with its Pronto rendering
//	POST /api/decode   decode {"frame": "19 80 ..."} or a raw capture payload
//	GET  /ws           websocket stream of state changes
//
// PUT /api/state answers 400 for malformed JSON, 422 for values the unit
// cannot represent and 502 when the IR transmitter fails.
//
// # WebSocket
//
// The stream sends the current state immediately after the upgrade and then
// one stateResponse document per change. The server pings every 54 seconds
// and drops peers that do not answer within a minute.
package server
