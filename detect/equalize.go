package detect

// EqualizeHist spreads the grayscale histogram over the full range,
// in place. Detection on IR and low-light frames is noticeably better
// after equalization.
func EqualizeHist(pixels []uint8) {
	if len(pixels) == 0 {
		return
	}

	var hist [256]int
	for _, p := range pixels {
		hist[p]++
	}

	// cumulative distribution, scaled to 0..255
	var cdf [256]int
	sum := 0
	for i, h := range hist {
		sum += h
		cdf[i] = sum
	}

	// first non-zero bin
	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}

	total := len(pixels)
	if total == cdfMin {
		return
	}

	var lut [256]uint8
	for i := range lut {
		v := (cdf[i] - cdfMin) * 255 / (total - cdfMin)
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v)
	}

	for i, p := range pixels {
		pixels[i] = lut[p]
	}
}
