package config

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 配置监听协程热更新配置段时，请求处理协程同时读取快照，
// 两侧必须能在 -race 下并发执行
func TestApplyHotSettingsConcurrentRead(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "initial-secret"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = "uploads"

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = cfg.JWTSettings().Secret
					_ = cfg.StorageSettings().LocalPath
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		newCfg := &Config{}
		newCfg.JWT.Secret = fmt.Sprintf("secret-%d", i)
		newCfg.JWT.ExpireTime = time.Hour
		newCfg.Storage.Type = "local"
		newCfg.Storage.LocalPath = fmt.Sprintf("uploads-%d", i)
		cfg.ApplyHotSettings(newCfg)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, "secret-99", cfg.JWTSettings().Secret)
	assert.Equal(t, "uploads-99", cfg.StorageSettings().LocalPath)
}

// 热更新只覆盖 JWT 与存储段，连接类配置保持不变
func TestApplyHotSettingsScope(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Host = "db.internal"
	cfg.JWT.Secret = "old-secret"

	newCfg := &Config{}
	newCfg.Server.Port = "9090"
	newCfg.Database.Host = "other.internal"
	newCfg.JWT.Secret = "new-secret"
	newCfg.Storage.Type = "minio"

	cfg.ApplyHotSettings(newCfg)

	assert.Equal(t, "new-secret", cfg.JWTSettings().Secret)
	assert.Equal(t, "minio", cfg.StorageSettings().Type)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}
