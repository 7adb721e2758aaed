package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_SortedAndEmbedded(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_profiles", "0002_tasks", "0003_accounts"}, versions)
}
