package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgw/ttdeploy/internal/execx"
)

// TestClientCommandLines checks the exact git invocations each operation issues.
func TestClientCommandLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := execx.NewRecorder()
	client := NewClient(rec)

	require.NoError(t, client.ConfigureIdentity(ctx, "Deploy Bot", "bot@example.com"))
	require.NoError(t, client.ForceTag(ctx, "continuous"))
	require.NoError(t, client.ForcePushTag(ctx, "origin", "continuous"))
	require.NoError(t, client.PushTags(ctx, "origin"))
	require.NoError(t, client.PushBranch(ctx, "origin", "release"))

	require.Equal(t, []string{
		"git config --global user.name Deploy Bot",
		"git config --global user.email bot@example.com",
		"git tag --force continuous",
		"git push --force origin refs/tags/continuous",
		"git push --tags origin",
		"git push origin HEAD:release",
	}, rec.Calls())
}
