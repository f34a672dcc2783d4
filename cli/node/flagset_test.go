package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlagSet_String(t *testing.T) {
	fset := FlagSet{"name": "value", "number": 1}

	require.Equal(t, "value", fset.String("name"))
	require.Equal(t, "", fset.String("number"))
	require.Equal(t, "", fset.String("unknown"))
}

func TestFlagSet_Duration(t *testing.T) {
	fset := FlagSet{"static": time.Minute, "decoded": float64(time.Second), "name": "value"}

	require.Equal(t, time.Minute, fset.Duration("static"))
	require.Equal(t, time.Second, fset.Duration("decoded"))
	require.Equal(t, time.Duration(0), fset.Duration("name"))
	require.Equal(t, time.Duration(0), fset.Duration("unknown"))
}

func TestFlagSet_Path(t *testing.T) {
	fset := FlagSet{"config": "/tmp/config", "number": 1}

	require.Equal(t, "/tmp/config", fset.Path("config"))
	require.Equal(t, "", fset.Path("number"))
	require.Equal(t, "", fset.Path("unknown"))
}

func TestFlagSet_Int(t *testing.T) {
	fset := FlagSet{"number": 1, "name": "value"}

	require.Equal(t, 1, fset.Int("number"))
	require.Equal(t, 0, fset.Int("name"))
	require.Equal(t, 0, fset.Int("unknown"))
}

func TestFlagSet_Bool(t *testing.T) {
	fset := FlagSet{"enabled": true, "name": "value"}

	require.True(t, fset.Bool("enabled"))
	require.False(t, fset.Bool("name"))
	require.False(t, fset.Bool("unknown"))
}
