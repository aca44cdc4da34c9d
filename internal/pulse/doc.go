// Package pulse converts Soleus frames to and from IR mark/space timings.
//
// A frame is sent as an 8000/4000 µs header pair, then 72 data bits most
// significant bit first (600 µs mark followed by a 1600 µs space for a one
// or a 550 µs space for a zero), then a single 600 µs trailing mark, on a
// 38 kHz carrier.
//
// Decoding goes through the Receiver interface, the same "expect this pair"
// primitive IR receive buffers offer. Reader implements it over a captured
// Sequence with a percentage tolerance window. Decoding stops at the first
// pair that matches neither bit; it never resynchronises.
//
// The package also reads and writes learned Pronto hex codes, the format
// the vendor code tables and ESPHome logs use.
package pulse
