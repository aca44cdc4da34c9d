// Package transmit moves pulse sequences between the codec and IR hardware.
//
// A Transmitter emits a sequence on a modulated carrier. Three are provided:
//
//   - SerialTransmitter talks to a microcontroller blaster over a serial line
//     ("SEND <hz> <d1>,<d2>,..." answered by "OK" or "ERR <reason>")
//   - MQTTTransmitter publishes a JSON or Pronto payload for an ESPHome blaster
//   - LogTransmitter only logs, for units without hardware
//
// New picks one from a unit's configuration and Send runs the whole
// state -> frame -> pulses -> transmit path.
//
// On the receive side ParsePayload accepts the capture formats IR receivers
// commonly publish, and Listen feeds MQTT captures to a handler.
package transmit
