// Package remote is a keyboard remote control for one unit.
//
// The remote edits a pending climate state and shows the frame it encodes
// to as you type. Nothing is transmitted until enter is pressed; the state
// the Sender reports back (with the codec's adjustments, e.g. DRY forcing
// the low fan) then replaces the pending one.
//
//	p        power on/off
//	m        next mode offered by the unit
//	f        next fan speed
//	e        preset: none, eco, sleep
//	↑ ↓      target temperature, one degree in the display unit
//	enter    transmit
//	esc      drop unsent edits
//	q        quit
package remote
