package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PortalConfig holds workflow tunables that operators adjust without a
// redeploy: invitation lifetime, the free-mail exclusion list used by
// company suggestions, and result caps.
type PortalConfig struct {
	InvitationTTLDays int      `mapstructure:"invitationTtlDays"`
	FreeMailDomains   []string `mapstructure:"freeMailDomains"`
	SuggestionLimit   int      `mapstructure:"suggestionLimit"`
	SearchLimit       int      `mapstructure:"searchLimit"`
}

func DefaultPortalConfig() PortalConfig {
	return PortalConfig{
		InvitationTTLDays: 7,
		FreeMailDomains: []string{
			"gmail.com", "googlemail.com", "yahoo.com", "yahoo.co.uk",
			"hotmail.com", "outlook.com", "live.com", "msn.com",
			"aol.com", "icloud.com", "me.com", "gmx.com", "gmx.de",
			"proton.me", "protonmail.com", "mail.com", "zoho.com",
		},
		SuggestionLimit: 5,
		SearchLimit:     25,
	}
}

// PortalConfigHolder serves the current PortalConfig and hot-reloads it
// when the backing file changes.
type PortalConfigHolder struct {
	current atomic.Value // holds PortalConfig
}

func NewPortalConfigHolder() (*PortalConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("portal")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rfpdock/config")
	v.AddConfigPath("/etc/rfpdock")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RFPDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPortalConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("portal.invitationTtlDays", defaults.InvitationTTLDays)
		v.SetDefault("portal.freeMailDomains", defaults.FreeMailDomains)
		v.SetDefault("portal.suggestionLimit", defaults.SuggestionLimit)
		v.SetDefault("portal.searchLimit", defaults.SearchLimit)
	}

	var cfg PortalConfig
	if err := v.UnmarshalKey("portal", &cfg); err != nil {
		return nil, err
	}
	applyPortalDefaults(&cfg, defaults)
	if err := validatePortalConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PortalConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PortalConfig
		if err := v.UnmarshalKey("portal", &updated); err != nil {
			log.Printf("[portal-config] reload failed: %v", err)
			return
		}
		applyPortalDefaults(&updated, defaults)
		if err := validatePortalConfig(updated); err != nil {
			log.Printf("[portal-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[portal-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPortalConfigHolder returns a holder that never reloads; tests
// use it to pin a known config.
func NewStaticPortalConfigHolder(cfg PortalConfig) *PortalConfigHolder {
	holder := &PortalConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PortalConfigHolder) Get() PortalConfig {
	return h.current.Load().(PortalConfig)
}

func applyPortalDefaults(cfg *PortalConfig, defaults PortalConfig) {
	if cfg.InvitationTTLDays == 0 {
		cfg.InvitationTTLDays = defaults.InvitationTTLDays
	}
	if len(cfg.FreeMailDomains) == 0 {
		cfg.FreeMailDomains = defaults.FreeMailDomains
	}
	if cfg.SuggestionLimit == 0 {
		cfg.SuggestionLimit = defaults.SuggestionLimit
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = defaults.SearchLimit
	}
}

func validatePortalConfig(cfg PortalConfig) error {
	if cfg.InvitationTTLDays < 1 {
		return errors.New("portal.invitationTtlDays must be at least 1")
	}
	if cfg.SuggestionLimit < 1 || cfg.SearchLimit < 1 {
		return errors.New("portal result limits must be positive")
	}
	return nil
}
