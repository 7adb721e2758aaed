package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/admin-console/config"
)

const (
	redisModeDirect   = "direct"
	redisModeSentinel = "sentinel"
	redisModeCluster  = "cluster"
)

// ConnectRedis connects to the session cache. Cluster and sentinel topologies
// are selected by REDIS_USE_CLUSTER and REDIS_USE_SENTINEL.
//
//nolint:ireturn // the concrete client type depends on the configured topology.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, mode, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch mode {
	case redisModeCluster:
		client = redis.NewClusterClient(opts.Cluster())
	case redisModeSentinel:
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis (%s): %w", mode, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "mode", mode, "addrs", opts.Addrs, "master", opts.MasterName)
	}
	return client, nil
}

// redisOptions resolves the configured topology into client options.
// Credentials embedded in a redis:// or rediss:// URI win over REDIS_PASSWORD.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	switch {
	case cfg.UseCluster:
		opts := &redis.UniversalOptions{Addrs: trimAddrs(cfg.ClusterNodes), Password: cfg.Password}
		if len(opts.Addrs) == 0 {
			if err := applyURI(opts, cfg.URI); err != nil {
				return nil, "", err
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster requires REDIS_CLUSTER_NODES or REDIS_URI")
		}
		return opts, redisModeCluster, nil

	case cfg.UseSentinel:
		opts := &redis.UniversalOptions{
			Addrs:            trimAddrs(cfg.SentinelNodes),
			MasterName:       strings.TrimSpace(cfg.SentinelMasterName),
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis sentinel requires at least one sentinel node")
		}
		if opts.MasterName == "" {
			return nil, "", errors.New("redis sentinel requires a master name")
		}
		return opts, redisModeSentinel, nil

	default:
		opts := &redis.UniversalOptions{Password: cfg.Password}
		if err := applyURI(opts, cfg.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis requires REDIS_URI")
		}
		return opts, redisModeDirect, nil
	}
}

// applyURI accepts either a bare host:port or a redis URL.
func applyURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
