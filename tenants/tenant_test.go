package tenants_test

import (
	"testing"

	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/stretchr/testify/require"
)

var known = []tenants.Tenant{
	{ID: "tid1", Name: "Acme Ltd"},
	{ID: "tid2", Name: "Beta Pty"},
}

func TestFind(t *testing.T) {
	got, ok := tenants.Find(known, "tid2")
	require.True(t, ok)
	require.Equal(t, "Beta Pty", got.Name)

	_, ok = tenants.Find(known, "missing")
	require.False(t, ok)
}

func TestResolveKeepsOrderAndDuplicates(t *testing.T) {
	got := tenants.Resolve(known, []string{"tid2", "unknown", "tid2"})
	require.Equal(t, []tenants.Tenant{
		{ID: "tid2", Name: "Beta Pty"},
		{ID: "unknown"},
		{ID: "tid2", Name: "Beta Pty"},
	}, got)
	require.Equal(t, "unknown", got[1].DisplayName())
}
