package capture

// hasGoodBlackLevel rejects frames that are mostly dark (lens covered,
// lights off) or mostly blown out. Such frames never contain a usable face
// and only waste detector time.
func hasGoodBlackLevel(img []byte) bool {
	dark := 0
	total := len(img)
	if total == 0 {
		return false
	}
	for i := 0; i < total; i++ {
		if img[i] < 80 {
			dark++
		}
	}
	darkness := float64(dark) / float64(total)
	return darkness > 0.02 && darkness < 0.9
}
