package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/kycklingar/dbsession/db"
	"github.com/kycklingar/dbsession/handlers"
	"github.com/kycklingar/dbsession/redisstore"
	"github.com/kycklingar/dbsession/session"
	"github.com/spf13/viper"
)

const (
	backendPostgres = "postgres"
	backendPGX      = "pgx"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

type config struct {
	Env         string `json:"env" mapstructure:"env"`
	HTTPAddress string `json:"http_address" mapstructure:"http_address"`

	// One of postgres, pgx, redis or memory
	Backend string `json:"backend" mapstructure:"backend"`

	DBCfg      db.Config         `json:"database" mapstructure:"database"`
	RedisCfg   redisstore.Config `json:"redis" mapstructure:"redis"`
	SessionCfg session.Config    `json:"session" mapstructure:"session"`
	HCfg       handlers.Config   `json:"handlers" mapstructure:"handlers"`
}

func (c *config) Default() {
	c.Env = "production"
	c.HTTPAddress = ":8080"
	c.Backend = backendPostgres
	c.DBCfg.Default()
	c.RedisCfg.Default()
	c.SessionCfg.Default()
	c.HCfg.Default()
}

// exeConf loads path, writing a default config there first if it does not exist.
// Every key can be overridden from the environment, e.g. DBSESSION_SESSION_MAX_LIFETIME.
func exeConf(path string) (config, error) {
	var conf config

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		file, err := os.Create(path)
		if err != nil {
			return conf, err
		}
		defer file.Close()

		if err = createConfigFile(&conf, file); err != nil {
			return conf, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("dbsession")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var defaults config
	defaults.Default()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		return conf, err
	}

	err := v.Unmarshal(&conf)
	return conf, err
}

// setDefaults registers every key of c with viper so that env overrides
// apply to keys missing from the file
func setDefaults(v *viper.Viper, c config) {
	var m map[string]any

	b, _ := json.Marshal(c)
	json.Unmarshal(b, &m)

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			if sub, ok := val.(map[string]any); ok {
				walk(prefix+k+".", sub)
				continue
			}
			v.SetDefault(prefix+k, val)
		}
	}

	walk("", m)
}

func createConfigFile(c *config, w io.Writer) error {
	c.Default()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "	")
	return enc.Encode(c)
}
