package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountControl(t *testing.T) {
	assert.True(t, IsNormalAccount(512))
	assert.False(t, IsNormalAccount(512|2048))
	assert.False(t, IsNormalAccount(512|UACWorkstationTrustAccount))
	assert.False(t, IsNormalAccount(512|UACServerTrustAccount))
	assert.False(t, IsNormalAccount(512|UACTempDuplicateAccount))
	assert.False(t, IsNormalAccount(0))

	assert.True(t, IsAccountDisabled(2))
	assert.True(t, IsAccountDisabled(514))
	assert.False(t, IsAccountDisabled(0))
	assert.False(t, IsAccountDisabled(512))

	assert.True(t, IsSmartCardRequired(512|UACSmartCardRequired))
	assert.False(t, IsSmartCardRequired(512))
}
