package indexer

import (
	"math"

	"github.com/hyperjump/semmap/internal/models"
)

const powerIterations = 100

// Project2D places records on a plane along their first two principal components.
// It is a deterministic stand-in for the UMAP layout when none is supplied. Records
// whose dimension differs from the first record are placed at the origin.
func Project2D(records []models.DocumentRecord) [][2]float64 {
	out := make([][2]float64, len(records))
	if len(records) < 2 || len(records[0].Embedding) == 0 {
		return out
	}
	dims := len(records[0].Embedding)

	mean := make([]float64, dims)
	var rows []int
	for i, r := range records {
		if len(r.Embedding) != dims {
			continue
		}
		rows = append(rows, i)
		for j, v := range r.Embedding {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(len(rows))
	}
	x := make([][]float64, len(rows))
	for k, i := range rows {
		x[k] = make([]float64, dims)
		for j, v := range records[i].Embedding {
			x[k][j] = float64(v) - mean[j]
		}
	}

	pc1 := principal(x, nil)
	pc2 := principal(x, pc1)
	for k, i := range rows {
		out[i] = [2]float64{dot(x[k], pc1), dot(x[k], pc2)}
	}
	return out
}

// principal returns the dominant eigenvector of XᵀX by power iteration, kept
// orthogonal to exclude when given.
func principal(x [][]float64, exclude []float64) []float64 {
	dims := len(x[0])
	v := make([]float64, dims)
	for j := range v {
		v[j] = float64(j%7+1) / 7
	}
	scores := make([]float64, len(x))
	for it := 0; it < powerIterations; it++ {
		if exclude != nil {
			orthogonalize(v, exclude)
		}
		if !normalize(v) {
			return v
		}
		for k, row := range x {
			scores[k] = dot(row, v)
		}
		next := make([]float64, dims)
		for k, row := range x {
			for j, val := range row {
				next[j] += scores[k] * val
			}
		}
		v = next
	}
	if exclude != nil {
		orthogonalize(v, exclude)
	}
	normalize(v)

	// fix the sign so the largest component is positive
	maxAbs, sign := 0.0, 1.0
	for _, c := range v {
		if math.Abs(c) > maxAbs {
			maxAbs = math.Abs(c)
			sign = math.Copysign(1, c)
		}
	}
	for j := range v {
		v[j] *= sign
	}
	return v
}

func orthogonalize(v, u []float64) {
	p := dot(v, u)
	for j := range v {
		v[j] -= p * u[j]
	}
}

func normalize(v []float64) bool {
	n := math.Sqrt(dot(v, v))
	if n == 0 {
		return false
	}
	for j := range v {
		v[j] /= n
	}
	return true
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
