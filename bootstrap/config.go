package bootstrap

import (
	"github.com/kbukum/wavechat/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig satisfies it via promoted
// methods, provided it keeps or overrides ApplyDefaults and Validate.
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    API httpclient.Config `yaml:"api" mapstructure:"api"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
