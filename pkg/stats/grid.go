package stats

import "sync"

// Grid is a 2-D field stored row by row. Rows are independent and may differ
// in length.
type Grid [][]float64

// Cells returns the total number of values across all rows.
func (g Grid) Cells() int {
	var n int

	for _, row := range g {
		n += len(row)
	}

	return n
}

// CalcQuantileGrid applies CalcQuantile to every row and returns one result
// per row, in row order.
func CalcQuantileGrid(grid Grid, fraction float64, opts ...Option) []float64 {
	out := make([]float64, len(grid))

	newOptions(opts).forEachRow(len(grid), func(i int) {
		out[i] = CalcQuantile(grid[i], fraction)
	})

	return out
}

// CalcStatisticGrid applies CalcStatistic to every row and returns one result
// per row, in row order.
func CalcStatisticGrid(grid Grid, stat Statistic, opts ...Option) ([]float64, error) {
	o := newOptions(opts)

	fraction, err := o.fractionFor(stat)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(grid))

	o.forEachRow(len(grid), func(i int) {
		out[i] = compute(validSubset(grid[i]), stat, fraction)
	})

	return out, nil
}

// NumMissingValues counts the values in grid that fail IsValid.
func NumMissingValues(grid Grid, opts ...Option) int {
	counts := make([]int, len(grid))

	newOptions(opts).forEachRow(len(grid), func(i int) {
		counts[i] = countMissing(grid[i])
	})

	var total int

	for _, c := range counts {
		total += c
	}

	return total
}

// forEachRow calls fn once for every index in [0, n). With more than one
// worker the range is split into contiguous chunks, one goroutine per chunk.
// fn must only write state owned by its index.
func (o options) forEachRow(n int, fn func(i int)) {
	workers := min(o.workers, n)
	if workers <= 1 {
		for i := range n {
			fn(i)
		}

		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)

		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := start; i < end; i++ {
				fn(i)
			}
		}()
	}

	wg.Wait()
}
