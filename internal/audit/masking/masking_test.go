package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****7890", MaskSecret("TRX-1234567890"))
}

func TestMaskKeysLeavesOtherFields(t *testing.T) {
	in := map[string]any{
		"status":            "paid",
		"payment_reference": "TRX-1234567890",
		"nested":            map[string]any{"payment_reference": "ABCDEFGH"},
	}
	out := MaskKeys(in, SensitiveKeys...)

	assert.Equal(t, "paid", out["status"])
	assert.Equal(t, "****7890", out["payment_reference"])
	assert.Equal(t, "****EFGH", out["nested"].(map[string]any)["payment_reference"])
	assert.Equal(t, "TRX-1234567890", in["payment_reference"])
}
