package pulse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pronto hex constants. Durations in a learned Pronto code are counted in
// carrier cycles; one unit of the frequency word is 0.241246 µs.
const (
	prontoLearned   = 0x0000
	prontoClockUnit = 0.241246

	// ProntoLeadOut is the closing space, in carrier cycles, the vendor
	// remote leaves after the trailing mark
	ProntoLeadOut = 0x0181
)

// ProntoFrequencyWord returns the Pronto carrier word for a frequency in Hz
func ProntoFrequencyWord(carrierHz uint32) uint16 {
	if carrierHz == 0 {
		carrierHz = CarrierHz
	}
	return uint16(math.Round(1e6 / (float64(carrierHz) * prontoClockUnit)))
}

func prontoPeriod(word uint16) float64 {
	return float64(word) * prontoClockUnit
}

// ToPronto renders a sequence as a learned Pronto code ("0000 006D 004A 0000 ...").
// An odd-length sequence is closed with the vendor lead-out space.
func ToPronto(seq Sequence, carrierHz uint32) string {
	word := ProntoFrequencyWord(carrierHz)
	period := prontoPeriod(word)

	cycles := make([]uint16, 0, len(seq)+1)
	for _, d := range seq {
		c := math.Round(float64(d) / period)
		if c < 1 {
			c = 1
		}
		if c > math.MaxUint16 {
			c = math.MaxUint16
		}
		cycles = append(cycles, uint16(c))
	}
	if len(cycles)%2 == 1 {
		cycles = append(cycles, ProntoLeadOut)
	}

	words := make([]string, 0, len(cycles)+4)
	words = append(words,
		fmt.Sprintf("%04X", prontoLearned),
		fmt.Sprintf("%04X", word),
		fmt.Sprintf("%04X", len(cycles)/2),
		fmt.Sprintf("%04X", 0))
	for _, c := range cycles {
		words = append(words, fmt.Sprintf("%04X", c))
	}
	return strings.Join(words, " ")
}

// splitProntoWords tokenises a Pronto string. Tokens longer than four hex
// digits are split into four digit words; ESPHome log lines sometimes run
// words together.
func splitProntoWords(s string) ([]uint16, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})

	var words []uint16
	for _, field := range fields {
		if len(field)%4 != 0 {
			return nil, fmt.Errorf("invalid pronto word %q", field)
		}
		for i := 0; i < len(field); i += 4 {
			v, err := strconv.ParseUint(field[i:i+4], 16, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid pronto word %q: %w", field[i:i+4], err)
			}
			words = append(words, uint16(v))
		}
	}
	return words, nil
}

// FromPronto parses a learned Pronto code and returns the sequence (with
// the closing lead-out space dropped) and the carrier frequency in Hz.
// When the code has a once part it is used; otherwise the repeat part.
func FromPronto(s string) (Sequence, uint32, error) {
	words, err := splitProntoWords(s)
	if err != nil {
		return nil, 0, err
	}
	if len(words) < 4 {
		return nil, 0, fmt.Errorf("pronto code too short: %d words", len(words))
	}
	if words[0] != prontoLearned {
		return nil, 0, fmt.Errorf("unsupported pronto format 0x%04X (only learned 0000 codes)", words[0])
	}
	if words[1] == 0 {
		return nil, 0, fmt.Errorf("pronto carrier word is zero")
	}

	once, repeat := int(words[2]), int(words[3])
	need := 4 + 2*(once+repeat)
	if len(words) < need {
		return nil, 0, fmt.Errorf("pronto code declares %d pairs but has %d words", once+repeat, len(words)-4)
	}

	data := words[4 : 4+2*once]
	if once == 0 {
		data = words[4 : 4+2*repeat]
	}
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("pronto code has no burst pairs")
	}

	period := prontoPeriod(words[1])
	seq := make(Sequence, 0, len(data))
	for _, c := range data {
		seq = append(seq, uint32(math.Round(float64(c)*period)))
	}
	// the last entry is the lead-out space
	seq = seq[:len(seq)-1]

	carrier := uint32(math.Round(1e6 / period))
	return seq, carrier, nil
}
