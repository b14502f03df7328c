package cache

import (
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// S is the process-wide cache store. Everything kept in it is advisory and
// safe to lose on restart.
var S store.StoreInterface

func NewStore() error {
	if viper.GetString("cache.backend") == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("cache.redis_addr"),
			Password: viper.GetString("cache.redis_password"),
			DB:       viper.GetInt("cache.redis_db"),
		})
		S = redisstore.NewRedis(client)
		return nil
	}

	inside, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     1 << 29,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}
	S = ristrettostore.NewRistretto(inside)

	return nil
}
