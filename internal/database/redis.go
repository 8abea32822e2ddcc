package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/proyectos-itsqmet/sistema-tickets/config"
)

// ConnectRedis opens the redis connection used for the user cache, the JWT
// denylist and the dashboard snapshot.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisFullAddr(),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return client, nil
}
