package indicator

import (
	"math"

	"batch-indicators/internal/device"
	"batch-indicators/internal/model"
)

// Kernels operate on row-major slices of rows*cols values. Each returned
// device.Kernel touches only rows [lo, hi) and walks columns in order.

func fillNotAvailable(row []float32) {
	for j := range row {
		row[j] = model.NotAvailable
	}
}

// emaKernel: dst[0] = src[0], dst[j] = alpha*src[j] + (1-alpha)*dst[j-1].
func emaKernel(src, dst []float32, cols int, period int) device.Kernel {
	alpha := float32(2.0 / float64(period+1))
	return func(lo, hi int) {
		if cols == 0 {
			return
		}
		for i := lo; i < hi; i++ {
			in := src[i*cols : (i+1)*cols]
			out := dst[i*cols : (i+1)*cols]
			prev := in[0]
			out[0] = prev
			for j := 1; j < cols; j++ {
				prev = alpha*in[j] + (1-alpha)*prev
				out[j] = prev
			}
		}
	}
}

// splitKernel writes the positive and negative parts of the one-step price
// change into gains and losses. Column 0 has no predecessor and holds 0.
func splitKernel(src, gains, losses []float32, cols int) device.Kernel {
	return func(lo, hi int) {
		if cols == 0 {
			return
		}
		for i := lo; i < hi; i++ {
			in := src[i*cols : (i+1)*cols]
			g := gains[i*cols : (i+1)*cols]
			l := losses[i*cols : (i+1)*cols]
			g[0], l[0] = 0, 0
			for j := 1; j < cols; j++ {
				d := in[j] - in[j-1]
				switch {
				case d > 0:
					g[j], l[j] = d, 0
				case d < 0:
					g[j], l[j] = 0, -d
				default:
					g[j], l[j] = 0, 0
				}
			}
		}
	}
}

// rsiKernel seeds at column period with the simple mean of the first period
// changes and applies Wilder smoothing afterwards. Rows shorter than
// period+1 are left entirely not available.
func rsiKernel(gains, losses, dst []float32, cols int, period int) device.Kernel {
	alpha := float32(1.0 / float64(period))
	return func(lo, hi int) {
		for i := lo; i < hi; i++ {
			g := gains[i*cols : (i+1)*cols]
			l := losses[i*cols : (i+1)*cols]
			out := dst[i*cols : (i+1)*cols]

			if cols <= period {
				fillNotAvailable(out)
				continue
			}
			fillNotAvailable(out[:period])

			var sg, sl float64
			for j := 1; j <= period; j++ {
				sg += float64(g[j])
				sl += float64(l[j])
			}
			avgGain := float32(sg / float64(period))
			avgLoss := float32(sl / float64(period))
			out[period] = rsiValue(avgGain, avgLoss)

			for j := period + 1; j < cols; j++ {
				avgGain = alpha*g[j] + (1-alpha)*avgGain
				avgLoss = alpha*l[j] + (1-alpha)*avgLoss
				out[j] = rsiValue(avgGain, avgLoss)
			}
		}
	}
}

func rsiValue(avgGain, avgLoss float32) float32 {
	rs := float64(avgGain) / (float64(avgLoss) + rsiEpsilon)
	return float32(100 - 100/(1+rs))
}

// bollingerKernel recomputes the trailing window mean and population
// standard deviation at every column from period-1 on.
func bollingerKernel(src, upper, middle, lower []float32, cols, period int, mult float64) device.Kernel {
	return func(lo, hi int) {
		for i := lo; i < hi; i++ {
			in := src[i*cols : (i+1)*cols]
			up := upper[i*cols : (i+1)*cols]
			mid := middle[i*cols : (i+1)*cols]
			low := lower[i*cols : (i+1)*cols]

			warm := period - 1
			if warm > cols {
				warm = cols
			}
			fillNotAvailable(up[:warm])
			fillNotAvailable(mid[:warm])
			fillNotAvailable(low[:warm])

			for j := period - 1; j < cols; j++ {
				win := in[j-period+1 : j+1]
				var sum float64
				for _, v := range win {
					sum += float64(v)
				}
				mean := sum / float64(period)
				var ss float64
				for _, v := range win {
					d := float64(v) - mean
					ss += d * d
				}
				std := math.Sqrt(ss / float64(period))

				mid[j] = float32(mean)
				up[j] = float32(mean + mult*std)
				low[j] = float32(mean - mult*std)
			}
		}
	}
}

// subKernel: dst = a - b, elementwise.
func subKernel(a, b, dst []float32, cols int) device.Kernel {
	return func(lo, hi int) {
		x := a[lo*cols : hi*cols]
		y := b[lo*cols : hi*cols]
		out := dst[lo*cols : hi*cols]
		for k := range out {
			out[k] = x[k] - y[k]
		}
	}
}
