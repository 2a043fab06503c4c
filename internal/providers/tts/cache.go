package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	audioKeyPrefix = "mockvox:audio:"
	audioTTL       = 24 * time.Hour
)

// CachedProvider fronts a Provider with a Redis byte cache. Interview speech
// repeats heavily (the closing line most of all), so cache hits skip the
// synthesis spend entirely. Cache trouble is logged and degrades to a plain
// synthesis call.
type CachedProvider struct {
	inner Provider
	rdb   *redis.Client
	voice string
	log   *logrus.Logger
}

func NewCachedProvider(inner Provider, rdb *redis.Client, voice string, log *logrus.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, rdb: rdb, voice: voice, log: log}
}

func (c *CachedProvider) Close() error { return c.inner.Close() }

func (c *CachedProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := c.audioKey(text)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil && len(data) > 0 {
		return data, nil
	}
	if err != nil && err != redis.Nil {
		c.log.WithError(err).Warn("audio cache read failed")
	}

	data, err = c.inner.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.Set(ctx, key, data, audioTTL).Err(); err != nil {
		c.log.WithError(err).Warn("audio cache write failed")
	}
	return data, nil
}

func (c *CachedProvider) audioKey(text string) string {
	sum := sha256.Sum256([]byte(c.voice + "|" + text))
	return audioKeyPrefix + hex.EncodeToString(sum[:])
}
