package nurbs

import (
	"errors"
	"math"
)

var errSingular = errors.New("singular system")

// solve returns X with A·X = B using Gaussian elimination with partial
// pivoting. A is n×n and B is n×m; both are copied.
func solve(a, b [][]float64) ([][]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	x := make([][]float64, n)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
		x[i] = append([]float64(nil), b[i]...)
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-14 {
			return nil, errSingular
		}
		m[col], m[pivot] = m[pivot], m[col]
		x[col], x[pivot] = x[pivot], x[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < n; c++ {
				m[r][c] -= f * m[col][c]
			}
			for c := range x[r] {
				x[r][c] -= f * x[col][c]
			}
		}
	}

	for r := n - 1; r >= 0; r-- {
		for c := range x[r] {
			sum := x[r][c]
			for k := r + 1; k < n; k++ {
				sum -= m[r][k] * x[k][c]
			}
			x[r][c] = sum / m[r][r]
		}
	}
	return x, nil
}
