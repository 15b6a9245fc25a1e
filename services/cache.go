package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"onusone/config"
)

// CacheMode indicates where snapshots are being served from.
type CacheMode string

const (
	CacheModeRedis    CacheMode = "redis"
	CacheModeInMemory CacheMode = "in-memory"
)

const cacheKeyPrefix = "onusone:"

// SnapshotCache serves API read models (status, economics) without hitting
// the engine on every request. Redis is preferred; when it is down the cache
// degrades to an in-process map and periodically retries the connection.
type SnapshotCache struct {
	cfg         *config.Config
	redisClient *redis.Client
	redisCtx    context.Context
	redisCancel context.CancelFunc

	mode   CacheMode
	modeMu sync.RWMutex

	memory   sync.Map // key -> memoryEntry
	stopChan chan struct{}
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewSnapshotCache(cfg *config.Config) *SnapshotCache {
	ctx, cancel := context.WithCancel(context.Background())
	sc := &SnapshotCache{
		cfg:         cfg,
		redisCtx:    ctx,
		redisCancel: cancel,
		mode:        CacheModeInMemory,
		stopChan:    make(chan struct{}),
	}

	if cfg.Redis.Enabled {
		sc.connectRedis()
		go sc.healthCheckLoop()
	} else {
		log.Println("Redis disabled, using in-memory cache")
	}

	return sc
}

func (sc *SnapshotCache) connectRedis() {
	opts := &redis.Options{
		Addr:     sc.cfg.Redis.Address,
		Password: sc.cfg.Redis.Password,
		DB:       sc.cfg.Redis.DB,
	}
	if sc.cfg.Redis.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(sc.redisCtx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable, falling back to in-memory cache: %v", err)
		sc.setMode(CacheModeInMemory)
		return
	}

	sc.redisClient = client
	sc.setMode(CacheModeRedis)
	log.Println("✓ Connected to Redis")
}

// healthCheckLoop pings Redis and switches modes as it comes and goes.
func (sc *SnapshotCache) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sc.checkRedisHealth()
		case <-sc.stopChan:
			return
		}
	}
}

func (sc *SnapshotCache) checkRedisHealth() {
	if sc.redisClient == nil {
		sc.connectRedis()
		return
	}

	ctx, cancel := context.WithTimeout(sc.redisCtx, 3*time.Second)
	defer cancel()

	err := sc.redisClient.Ping(ctx).Err()
	switch {
	case err != nil && sc.Mode() == CacheModeRedis:
		log.Printf("⚠️ Redis connection lost, switching to in-memory cache: %v", err)
		sc.setMode(CacheModeInMemory)
	case err == nil && sc.Mode() == CacheModeInMemory:
		log.Println("✓ Redis connection restored")
		sc.setMode(CacheModeRedis)
	}
}

func (sc *SnapshotCache) setMode(mode CacheMode) {
	sc.modeMu.Lock()
	sc.mode = mode
	sc.modeMu.Unlock()
}

// Mode returns the active cache backend.
func (sc *SnapshotCache) Mode() CacheMode {
	sc.modeMu.RLock()
	defer sc.modeMu.RUnlock()
	return sc.mode
}

// SetJSON marshals v and stores it under key with the given TTL.
func (sc *SnapshotCache) SetJSON(key string, v interface{}, ttl time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal cache entry %s: %v", key, err)
		return
	}

	if sc.Mode() == CacheModeRedis && sc.redisClient != nil {
		ctx, cancel := context.WithTimeout(sc.redisCtx, 2*time.Second)
		err := sc.redisClient.Set(ctx, cacheKeyPrefix+key, payload, ttl).Err()
		cancel()
		if err == nil {
			return
		}
		log.Printf("Redis set failed for %s, writing to memory: %v", key, err)
	}

	sc.memory.Store(key, memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	})
}

// GetJSON returns the raw JSON payload for key, or false if missing or
// expired.
func (sc *SnapshotCache) GetJSON(key string) ([]byte, bool) {
	if sc.Mode() == CacheModeRedis && sc.redisClient != nil {
		ctx, cancel := context.WithTimeout(sc.redisCtx, 2*time.Second)
		payload, err := sc.redisClient.Get(ctx, cacheKeyPrefix+key).Bytes()
		cancel()
		if err == nil {
			return payload, true
		}
		if err != redis.Nil {
			log.Printf("Redis get failed for %s: %v", key, err)
		}
	}

	value, ok := sc.memory.Load(key)
	if !ok {
		return nil, false
	}
	entry := value.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		sc.memory.Delete(key)
		return nil, false
	}
	return entry.payload, true
}

// Invalidate drops a cached entry from both backends.
func (sc *SnapshotCache) Invalidate(key string) {
	sc.memory.Delete(key)
	if sc.redisClient != nil {
		ctx, cancel := context.WithTimeout(sc.redisCtx, 2*time.Second)
		defer cancel()
		sc.redisClient.Del(ctx, cacheKeyPrefix+key)
	}
}

// Stop shuts down the cache and its Redis connection.
func (sc *SnapshotCache) Stop() {
	close(sc.stopChan)
	sc.redisCancel()
	if sc.redisClient != nil {
		sc.redisClient.Close()
	}
}
