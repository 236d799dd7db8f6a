package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Supported UI languages. Korean is the source language; translating to it
// is a no-op.
var languageNames = map[string]string{
	"KR": "Korean",
	"CN": "Chinese (Simplified)",
	"EN": "English",
	"RU": "Russian",
	"VN": "Vietnamese",
}

// TranslationCache stores finished translations keyed by text+language.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Translator performs on-demand machine translation with caching. A failed
// remote call falls back to the original text; translation is best-effort
// and never surfaces an error to callers.
type Translator struct {
	generator TextGenerator
	cache     TranslationCache
}

func NewTranslator(generator TextGenerator, cache TranslationCache) *Translator {
	if cache == nil {
		cache = NewMemoryTranslationCache()
	}
	return &Translator{generator: generator, cache: cache}
}

// Translate renders text into the target language. Unknown target languages
// and Korean return the text unchanged.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	langName, ok := languageNames[targetLang]
	if !ok || targetLang == "KR" {
		return text
	}

	key := cacheKey(text, targetLang)
	if cached, ok := t.cache.Get(ctx, key); ok {
		return cached
	}

	prompt := fmt.Sprintf(`Translate the following text into natural %s.
Context: Information for foreigners living in Korea regarding immigration/visa services.
Do NOT add any explanations, just return the translated text.

Text: %q`, langName, text)

	translated, err := t.generator.GenerateText(ctx, "", nil, prompt)
	if err != nil {
		slog.Warn("translation failed, returning original", "lang", targetLang, "err", err)
		return text
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return text
	}
	t.cache.Set(ctx, key, translated)
	return translated
}

func cacheKey(text, lang string) string {
	sum := sha256.Sum256([]byte(text))
	return "translation:" + lang + ":" + hex.EncodeToString(sum[:])
}

// RedisTranslationCache shares translations across replicas with a TTL.
type RedisTranslationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTranslationCache(addr, password string, ttl time.Duration) *RedisTranslationCache {
	return &RedisTranslationCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		ttl:    ttl,
	}
}

func (c *RedisTranslationCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *RedisTranslationCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		slog.Warn("translation cache write failed", "err", err)
	}
}

// MemoryTranslationCache is the in-process fallback cache.
type MemoryTranslationCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryTranslationCache() *MemoryTranslationCache {
	return &MemoryTranslationCache{entries: make(map[string]string)}
}

func (c *MemoryTranslationCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.entries[key]
	return val, ok
}

func (c *MemoryTranslationCache) Set(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}
