package config

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

func DecodeStruct[E any](source interface{}) (E, error) {
	var target E
	err := mapstructure.Decode(source, &target)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("could not decode struct: %w", err)
	}
	return target, nil
}

func EncodeStruct[E any](source E) (map[string]interface{}, error) {
	var target map[string]interface{}
	err := mapstructure.Decode(source, &target)
	if err != nil {
		return nil, fmt.Errorf("could not decode struct: %w", err)
	}
	return target, nil
}

func readConfig[E any](configFilePath string, defaults *E) (*E, error) {
	vp := viper.New()

	if defaults != nil {
		defaultsMap := map[string]interface{}{}
		mapstructure.Decode(defaults, &defaultsMap)

		for key, value := range defaultsMap {
			if value != nil && value != "" {
				vp.SetDefault(key, value)
			}
		}
	}

	vp.SetConfigFile(configFilePath)
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error while processing config file: %w", err)
	}

	var config E
	err := vp.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	return &config, nil
}

const ConfigFileEnvVar = "ANEMONE_CONFIG_FILE"

func LoadConfig[E any](defaults *E) (*E, error) {
	configFileEnv := os.Getenv(ConfigFileEnvVar)

	if configFileEnv != "" {
		conf, err := readConfig[E](configFileEnv, defaults)
		if err != nil {
			return nil, err
		}
		return conf, nil
	}

	for _, path := range []string{"/etc/anemone/config.yml", "config.yml"} {
		if _, err := os.Stat(path); err == nil {
			return readConfig[E](path, defaults)
		}
	}

	return nil, fmt.Errorf("no config file found: set %s or provide config.yml", ConfigFileEnvVar)
}
