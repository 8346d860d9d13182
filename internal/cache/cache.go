// Package cache speichert Antworten und Audio-URLs zwischen, damit gleiche
// Fragen das Sprachmodell nicht erneut belasten.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// ErrMiss: Schlüssel nicht vorhanden oder abgelaufen
var ErrMiss = errors.New("cache miss")

// Cache ist der gemeinsame Vertrag für Redis und Speicher
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Key bildet aus beliebigen Teilen einen stabilen, kurzen Schlüssel
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.TrimSpace(strings.ToLower(p))))
		h.Write([]byte{0})
	}
	return "tutor:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))[:24]
}

// RedisCache nutzt einen Redis-Server
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache verbindet sich und prüft die Verbindung mit PING
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// DefaultMemorySize begrenzt den Speicher-Cache ohne Konfiguration
const DefaultMemorySize = 1000

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache ist der Ersatz ohne Redis: LRU mit fester Größe. ttl gilt für
// alle Einträge, ein kürzeres ttl bei Set wird pro Eintrag geprüft.
type MemoryCache struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewMemoryCache erstellt einen leeren Speicher-Cache mit höchstens size Einträgen.
// ttl <= 0 heißt: nur Verdrängung nach Größe.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, entry](size, nil, ttl),
		now: time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return "", ErrMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Len liefert die Anzahl gehaltener Einträge
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache) Close() error { return nil }
