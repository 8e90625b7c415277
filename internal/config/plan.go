package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PlanConfig holds the plan timing policy applied by the entitlement resolver.
type PlanConfig struct {
	WindowDays int `mapstructure:"windowDays"`
	GraceDays  int `mapstructure:"graceDays"`
}

func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		WindowDays: 31,
		GraceDays:  3,
	}
}

// PlanConfigHolder serves the current plan policy and hot-reloads it when the
// underlying config file changes.
type PlanConfigHolder struct {
	current atomic.Value // holds PlanConfig
}

func NewPlanConfigHolder() (*PlanConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("plan")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/balo/config") // Volume-mounted config
	v.AddConfigPath("/etc/balo")            // System config
	v.AddConfigPath(".")                    // Current directory (dev mode)

	v.SetEnvPrefix("BALO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPlanConfig()
	v.SetDefault("plan.windowDays", defaults.WindowDays)
	v.SetDefault("plan.graceDays", defaults.GraceDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PlanConfig
	if err := v.UnmarshalKey("plan", &cfg); err != nil {
		return nil, err
	}
	if err := validatePlanConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PlanConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PlanConfig
		if err := v.UnmarshalKey("plan", &updated); err != nil {
			log.Printf("[plan-config] reload failed: %v", err)
			return
		}
		if err := validatePlanConfig(updated); err != nil {
			log.Printf("[plan-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[plan-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PlanConfigHolder) Get() PlanConfig {
	return h.current.Load().(PlanConfig)
}

// NewStaticPlanConfigHolder returns a holder pinned to the given policy.
func NewStaticPlanConfigHolder(cfg PlanConfig) *PlanConfigHolder {
	holder := &PlanConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePlanConfig(cfg PlanConfig) error {
	if cfg.WindowDays < 1 {
		return errors.New("plan.windowDays must be at least 1")
	}
	if cfg.GraceDays < 0 {
		return errors.New("plan.graceDays cannot be negative")
	}
	return nil
}
