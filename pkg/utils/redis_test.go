package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfigDefaults(t *testing.T) {
	o := RedisConfig{Addr: "localhost:6379", DB: 2, Password: "pw"}.withDefaults().options()
	if o.PoolSize != 20 || o.DialTimeout != 3*time.Second || o.DB != 2 || o.Password != "pw" {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
