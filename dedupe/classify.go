package dedupe

// Classification is the band derived from the max neighbor similarity.
type Classification string

const (
	ClassificationDuplicate     Classification = "duplicate"
	ClassificationNearDuplicate Classification = "near_duplicate"
	ClassificationNew           Classification = "new"
)

// Classify maps a max similarity onto a band. Both thresholds are
// inclusive on their lower bound; callers guarantee near <= dup.
func Classify(maxSim, dupThreshold, nearThreshold float64) Classification {
	switch {
	case maxSim >= dupThreshold:
		return ClassificationDuplicate
	case maxSim >= nearThreshold:
		return ClassificationNearDuplicate
	default:
		return ClassificationNew
	}
}
