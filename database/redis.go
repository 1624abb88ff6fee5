package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/log"
)

// RedisManager 封装单机与集群两种客户端，快照持久化走这里
type RedisManager struct {
	Cli        *redis.Client
	ClusterCli *redis.ClusterClient
}

func NewRedis(redisConf config.RedisConf) *RedisManager {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterCli *redis.ClusterClient
	var cli *redis.Client

	// 构建Redis地址
	var addr string
	if redisConf.Addr != "" {
		addr = redisConf.Addr
	} else if redisConf.Host != "" && redisConf.Port > 0 {
		addr = fmt.Sprintf("%s:%d", redisConf.Host, redisConf.Port)
	} else {
		panic("redis 配置出错")
	}

	if len(redisConf.ClusterAddrs) == 0 {
		cli = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     redisConf.Password, // 如果没有密码，这个字段为空字符串，Redis会忽略
			PoolSize:     redisConf.PoolSize,
			MinIdleConns: redisConf.MinIdleConns,
		})
	} else {
		clusterCli = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        redisConf.ClusterAddrs,
			Password:     redisConf.Password,
			PoolSize:     redisConf.PoolSize,
			MinIdleConns: redisConf.MinIdleConns,
		})
	}
	if cli != nil {
		if err := cli.Ping(ctx).Err(); err != nil {
			log.Fatal("redis 连接错误: %v", err)
			return nil
		}
	}
	if clusterCli != nil {
		if err := clusterCli.Ping(ctx).Err(); err != nil {
			log.Fatal("redisCluster 连接错误: %v", err)
			return nil
		}
	}

	return &RedisManager{
		Cli:        cli,
		ClusterCli: clusterCli,
	}
}

func (r *RedisManager) GetClient() (redis.Cmdable, error) {
	if r.Cli != nil {
		return r.Cli, nil
	}
	if r.ClusterCli != nil {
		return r.ClusterCli, nil
	}
	return nil, fmt.Errorf("redis 客户端未初始化")
}

func (r *RedisManager) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if r.Cli != nil {
		return r.Cli.Set(ctx, key, value, expiration).Err()
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Set(ctx, key, value, expiration).Err()
	}
	return nil
}

func (r *RedisManager) Get(ctx context.Context, key string) *redis.StringCmd {
	if r.Cli != nil {
		return r.Cli.Get(ctx, key)
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Get(ctx, key)
	}
	return nil
}

func (r *RedisManager) Del(ctx context.Context, keys ...string) error {
	if r.Cli != nil {
		return r.Cli.Del(ctx, keys...).Err()
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Del(ctx, keys...).Err()
	}
	return nil
}

// Scan 按模式遍历键，房间列表接口用
func (r *RedisManager) Scan(ctx context.Context, pattern string, count int64) ([]string, error) {
	cli, err := r.GetClient()
	if err != nil {
		return nil, err
	}
	var keys []string
	var cursor uint64
	for {
		batch, next, err := cli.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (r *RedisManager) Close() error {
	if r.Cli == nil && r.ClusterCli == nil {
		return nil
	}
	if r.Cli != nil {
		if err := r.Cli.Close(); err != nil {
			log.Error("redis 关闭出错: %v", err)
			return err
		}
	}
	if r.ClusterCli != nil {
		if err := r.ClusterCli.Close(); err != nil {
			log.Error("redisCluster 关闭出错: %v", err)
			return err
		}
	}
	return nil
}
