package config

import (
	"errors"
	"io/fs"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// SettlementPolicy holds the tunables of the settlement engine that operators may change
// without a restart.
type SettlementPolicy struct {
	MoneyPlaces      int32         `mapstructure:"moneyPlaces"`
	NotifyOnApproval bool          `mapstructure:"notifyOnApproval"`
	LockTTL          time.Duration `mapstructure:"lockTTL"`
	OperationTimeout time.Duration `mapstructure:"operationTimeout"`
}

func DefaultSettlementPolicy() SettlementPolicy {
	return SettlementPolicy{
		MoneyPlaces:      2,
		NotifyOnApproval: true,
		LockTTL:          30 * time.Second,
		OperationTimeout: 30 * time.Second,
	}
}

type SettlementPolicyHolder struct {
	current atomic.Value // holds SettlementPolicy
}

// NewStaticSettlementPolicyHolder returns a holder that never reloads.
func NewStaticSettlementPolicyHolder(policy SettlementPolicy) *SettlementPolicyHolder {
	holder := &SettlementPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewSettlementPolicyHolder(cfg Config, log *zap.Logger) (*SettlementPolicyHolder, error) {
	v := viper.New()

	if cfg.SettlementPolicyPath != "" {
		v.SetConfigFile(cfg.SettlementPolicyPath)
	} else {
		v.SetConfigName("settlement")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/payouts")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PAYOUTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettlementPolicy()
	v.SetDefault("settlement.moneyPlaces", defaults.MoneyPlaces)
	v.SetDefault("settlement.notifyOnApproval", defaults.NotifyOnApproval)
	v.SetDefault("settlement.lockTTL", defaults.LockTTL)
	v.SetDefault("settlement.operationTimeout", defaults.OperationTimeout)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		fileLoaded = false
	}

	var policy SettlementPolicy
	if err := v.UnmarshalKey("settlement", &policy); err != nil {
		return nil, err
	}
	if err := validateSettlementPolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticSettlementPolicyHolder(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SettlementPolicy
		if err := v.UnmarshalKey("settlement", &updated); err != nil {
			log.Warn("settlement policy reload failed", zap.Error(err))
			return
		}
		if err := validateSettlementPolicy(updated); err != nil {
			log.Warn("invalid settlement policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("settlement policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *SettlementPolicyHolder) Get() SettlementPolicy {
	if h == nil {
		return DefaultSettlementPolicy()
	}
	policy, ok := h.current.Load().(SettlementPolicy)
	if !ok {
		return DefaultSettlementPolicy()
	}
	return policy
}

func validateSettlementPolicy(p SettlementPolicy) error {
	if p.MoneyPlaces < 0 || p.MoneyPlaces > 4 {
		return errors.New("settlement.moneyPlaces must be between 0 and 4")
	}
	if p.LockTTL <= 0 {
		return errors.New("settlement.lockTTL must be positive")
	}
	if p.OperationTimeout <= 0 {
		return errors.New("settlement.operationTimeout must be positive")
	}
	return nil
}
