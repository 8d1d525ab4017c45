package render

import "time"

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline maps each value onto a block character, with ceiling mapping to
// the full block. Values above ceiling are clipped.
func Sparkline(values []time.Duration, ceiling time.Duration) []rune {
	out := make([]rune, len(values))
	for i, v := range values {
		if ceiling <= 0 || v <= 0 {
			out[i] = sparkBlocks[0]
			continue
		}
		idx := int(int64(v) * int64(len(sparkBlocks)-1) / int64(ceiling))
		out[i] = sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)]
	}
	return out
}
