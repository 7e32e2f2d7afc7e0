package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	const (
		dup  = 0.95
		near = 0.85
		eps  = 1e-9
	)

	tests := []struct {
		name string
		sim  float64
		want Classification
	}{
		{"well above duplicate", 0.99, ClassificationDuplicate},
		{"exactly duplicate threshold", dup, ClassificationDuplicate},
		{"just below duplicate", dup - eps, ClassificationNearDuplicate},
		{"exactly near threshold", near, ClassificationNearDuplicate},
		{"just below near threshold", near - eps, ClassificationNew},
		{"no neighbors", 0, ClassificationNew},
		{"negative similarity", -0.4, ClassificationNew},
		{"identical", 1.0, ClassificationDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sim, dup, near))
		})
	}
}
