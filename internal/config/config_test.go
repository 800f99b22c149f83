package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := FromViper(v)

	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.Debug)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "smart_campus", cfg.MongoDB)
	assert.True(t, cfg.JWTKeyIsDefault)
	assert.Equal(t, []byte(InsecureJWTKey), cfg.JWTKey)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.RelayInterval)
	assert.Equal(t, 5, cfg.RelayMaxAttempts)
	assert.Equal(t, MailNone, cfg.Mail.Provider)
	assert.False(t, cfg.AllowAdminRegistration)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("env", "PROD")
	v.Set("port", ":9090")
	v.Set("jwt_key", "s3cret")
	v.Set("jwt_ttl", "2h")
	v.Set("cors_origins", "https://a.edu, https://b.edu ,")
	v.Set("store_driver", "Memory")
	v.Set("relay_max_attempts", 0)

	cfg := FromViper(v)
	assert.Equal(t, "prod", cfg.Env)
	assert.False(t, cfg.Debug)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.False(t, cfg.JWTKeyIsDefault)
	assert.Equal(t, []byte("s3cret"), cfg.JWTKey)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, cfg.CORSOrigins)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.RelayMaxAttempts)
}
