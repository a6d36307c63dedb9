package satellite

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/spektrum.go/pkg/spektrum"
)

func TestFormatChannels(t *testing.T) {
	sat := spektrum.New[float64]()
	require.NoError(t, sat.SetChannelValueRange(-1, 1))
	require.NoError(t, sat.SetChannelValue(spektrum.Throttle, 1))

	text, err := FormatChannels(sat)
	require.NoError(t, err)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, spektrum.MaxChannels)
	require.Equal(t, "Throttle 2047    1.000", lines[0])
	require.True(t, strings.HasPrefix(lines[11], "Aux7"))
}

func TestStatusOf(t *testing.T) {
	sat := spektrum.New[float64]()
	st := StatusOf(sat, time.Second)
	require.Equal(t, spektrum.NotConnected.String(), st.Status)
	require.False(t, st.Connected)
	require.Equal(t, spektrum.DefaultBindMode.String(), st.BindMode)
	require.Equal(t, spektrum.DSMX_11ms_2048.String(), st.System)
	require.Contains(t, st.String(), "frames=0")
}

func TestParseFloats(t *testing.T) {
	vals, err := parseFloats("1", "-0.5")
	require.NoError(t, err)
	require.Equal(t, []float64{1, -0.5}, vals)
	_, err = parseFloats("x")
	require.Error(t, err)
}
