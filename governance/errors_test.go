package governance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		give error
		want string
	}{
		{
			name: "configuration error without reason",
			give: &ConfigurationError{Component: "strategy", Address: "0x1"},
			want: "strategy 0x1 is not configured",
		},
		{
			name: "configuration error with reason",
			give: &ConfigurationError{Component: "authenticator", Address: "0x2", Reason: "unsupported kind"},
			want: "authenticator 0x2: unsupported kind",
		},
		{
			name: "missing metadata field",
			give: &MissingMetadataError{Strategy: "0x3", Field: "payload"},
			want: `strategy 0x3 requires metadata field "payload"`,
		},
		{
			name: "relay rejection is verbatim",
			give: &RelayRejectionError{Message: "Invalid signature"},
			want: "Invalid signature",
		},
		{
			name: "insufficient execution data",
			give: &InsufficientExecutionDataError{Kind: "EthRelayer"},
			want: "not enough data to create execution for strategy type EthRelayer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, tt.give, tt.want)
		})
	}
}

func TestIsNotReadyYet(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("resolve anchor: %w", NewNotReadyYetError(1700000000))
	require.True(t, IsNotReadyYet(err))

	var nry *NotReadyYetError
	require.ErrorAs(t, err, &nry)
	assert.Equal(t, NotReadyYetDetails, nry.Details)
	assert.Equal(t, uint64(1700000000), nry.Timestamp)

	assert.False(t, IsNotReadyYet(errors.New("boom")))
}

func TestStrategyConfig_ParamsList(t *testing.T) {
	t.Parallel()

	cfg := StrategyConfig{Params: "0x1, 0x2,,0x3 "}
	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, cfg.ParamsList())
	assert.Empty(t, StrategyConfig{}.ParamsList())
}
