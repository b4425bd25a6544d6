package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettlementPolicyDefaultsWithoutFile(t *testing.T) {
	holder, err := NewSettlementPolicyHolder(Config{SettlementPolicyPath: filepath.Join(t.TempDir(), "missing.yml")}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettlementPolicy(), holder.Get())
}

func TestSettlementPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.yml")
	content := []byte("settlement:\n  moneyPlaces: 3\n  notifyOnApproval: false\n  lockTTL: 10s\n  operationTimeout: 5s\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := NewSettlementPolicyHolder(Config{SettlementPolicyPath: path}, zap.NewNop())
	require.NoError(t, err)

	policy := holder.Get()
	assert.Equal(t, int32(3), policy.MoneyPlaces)
	assert.False(t, policy.NotifyOnApproval)
	assert.Equal(t, 10*time.Second, policy.LockTTL)
	assert.Equal(t, 5*time.Second, policy.OperationTimeout)
}

func TestSettlementPolicyRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.yml")
	require.NoError(t, os.WriteFile(path, []byte("settlement:\n  moneyPlaces: 9\n"), 0o600))

	_, err := NewSettlementPolicyHolder(Config{SettlementPolicyPath: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *SettlementPolicyHolder
	assert.Equal(t, DefaultSettlementPolicy(), holder.Get())
}
