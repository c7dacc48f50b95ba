package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1000", want: 100_000},
		{in: "10.15", want: 1_015},
		{in: "0.5", want: 50},
		{in: " 200.00 ", want: 20_000},
		{in: "1.230", want: 123},
		{in: "1.234", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "10.15", FormatAmount(1_015))
	assert.Equal(t, "1000.00", FormatAmount(100_000))
}

func TestNewReference(t *testing.T) {
	t.Parallel()

	a := NewReference(PrefixFund)
	b := NewReference(PrefixFund)

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^fund_[0-9a-z]{26}$`, a)
}
