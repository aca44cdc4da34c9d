// Package codes holds the complete table of codes the vendor remote sends
// and a printable protocol reference.
//
// All lists every button (temperature mode, AUTO, ECO, SLEEP, FAN, DRY and
// POWER OFF) with its frame, the state it decodes to and the Pronto code in
// the vendor's own word table. WriteJSON exports the table in the layout of
// the OEM code list so it can be loaded into universal remotes.
package codes
