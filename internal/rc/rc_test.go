package rc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIsWarning(t *testing.T) {
	assert.True(t, PfEof.IsWarning())
	assert.False(t, PfNoMemory.IsWarning())
	assert.True(t, RmRecordNotFound.IsWarning())
	assert.False(t, RmFileNotOpen.IsWarning())
}

func TestCodeIsMatchesLayerAndValue(t *testing.T) {
	var err error = RmRecordNotFound
	require.True(t, errors.Is(err, RmRecordNotFound))
	require.False(t, errors.Is(err, IxEntryNotFound))
	// SM and IX share numeric ranges; Is must not conflate them even
	// when the raw numeric value happens to collide (both are 202).
	require.Equal(t, SmDuplicateIndex.Value(), IxEof.Value())
	require.False(t, errors.Is(error(SmDuplicateIndex), error(IxEof)))
}

func TestPrintErrorDispatchesByLayer(t *testing.T) {
	assert.Contains(t, PrintError(PfNoBuffer), "PF_")
	assert.Contains(t, PrintError(RmScanAlreadyOpen), "RM_")
	assert.Contains(t, PrintError(IxInvalidTree), "IX_")
	assert.Contains(t, PrintError(SmSystemCatalog), "SM_")
	assert.Contains(t, PrintError(QlEof), "QL_")
}
