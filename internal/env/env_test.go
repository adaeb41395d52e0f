package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	t.Setenv("PV_TEST_STRING", "paystack")
	t.Setenv("PV_TEST_INT", "42")
	t.Setenv("PV_TEST_BAD_INT", "forty-two")
	t.Setenv("PV_TEST_BOOL", "true")
	t.Setenv("PV_TEST_DURATION", "90s")

	require.Equal(t, "paystack", GetString("PV_TEST_STRING", "flutterwave"))
	require.Equal(t, "fallback", GetString("PV_TEST_MISSING", "fallback"))
	require.Equal(t, 42, GetInt("PV_TEST_INT", 1))
	require.Equal(t, 1, GetInt("PV_TEST_BAD_INT", 1))
	require.True(t, GetBool("PV_TEST_BOOL", false))
	require.Equal(t, 90*time.Second, GetDuration("PV_TEST_DURATION", time.Second))
	require.Equal(t, time.Second, GetDuration("PV_TEST_MISSING", time.Second))
}
