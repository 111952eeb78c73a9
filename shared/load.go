package shared

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
	"github.com/spf13/viper"
)

// LoadServerConfig unmarshals 'config' into a ServerConfig, validates it & applies defaults
func LoadServerConfig(config *viper.Viper) (*ServerConfig, error) {
	serverConfig := &ServerConfig{}
	if err := config.Unmarshal(serverConfig); err != nil {
		return nil, fmt.Errorf("unable to decode server config: %v", err)
	}

	if errs := validator.New().Struct(serverConfig); errs != nil {
		return nil, fmt.Errorf("invalid server config:\n%v", strings.TrimSpace(errs.Error()))
	}

	serverConfig.ApplyDefaults()
	return serverConfig, nil
}
