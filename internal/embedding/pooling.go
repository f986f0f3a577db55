package embedding

// MeanPool averages the token rows of hidden (tokens x dims, row-major) whose
// attention mask is set. The result is not normalized.
func MeanPool(hidden []float32, attentionMask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var n float32
	for tok, m := range attentionMask {
		if m == 0 {
			continue
		}
		row := hidden[tok*dims:]
		if len(row) < dims {
			break
		}
		for j := 0; j < dims; j++ {
			out[j] += row[j]
		}
		n++
	}
	if n == 0 {
		return out
	}
	for j := range out {
		out[j] /= n
	}
	return out
}
