package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	require.Equal(t, "Rp0", FormatRupiah(0))
	require.Equal(t, "Rp1.250.000", FormatRupiah(1_250_000))
	require.Equal(t, "Rp305.000", FormatRupiah(305_000))
}
