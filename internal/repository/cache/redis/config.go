package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/cache"
)

const (
	DefaultExpiration = 6 * time.Hour
	keyPrefix         = "orchestrator:"
	// 缓存只是加速，Redis 慢的时候宁可回源
	opTimeout = 200 * time.Millisecond
)

var _ cache.CoverageCache = (*Cache)(nil)

// Cache 多个副本共享的覆盖信息缓存。读写失败都当作未命中，只记日志
type Cache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *elog.Component
}

func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Cache{
		rdb:    rdb,
		ttl:    ttl,
		logger: elog.DefaultLogger.With(elog.String("component", "coverage-cache")),
	}
}

func (c *Cache) Countries(providerName string) ([]domain.Country, bool) {
	var countries []domain.Country
	if !c.get(cache.CountriesKey(providerName), &countries) {
		return nil, false
	}
	return countries, true
}

func (c *Cache) SetCountries(providerName string, countries []domain.Country) {
	c.set(cache.CountriesKey(providerName), countries)
}

func (c *Cache) Coverage(providerName, countryCode string) (domain.CountryCoverage, bool) {
	var coverage domain.CountryCoverage
	if !c.get(cache.CoverageKey(providerName, countryCode), &coverage) {
		return domain.CountryCoverage{}, false
	}
	return coverage, true
}

func (c *Cache) SetCoverage(providerName string, coverage domain.CountryCoverage) {
	c.set(cache.CoverageKey(providerName, coverage.CountryCode), coverage)
}

func (c *Cache) get(key string, dst any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	val, err := c.rdb.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("读取缓存失败", elog.String("key", key), elog.FieldErr(err))
		}
		return false
	}
	if err = json.Unmarshal([]byte(val), dst); err != nil {
		c.logger.Warn("缓存数据格式错误", elog.String("key", key), elog.FieldErr(err))
		return false
	}
	return true
}

func (c *Cache) set(key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		c.logger.Warn("序列化缓存数据失败", elog.String("key", key), elog.FieldErr(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err = c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("写入缓存失败", elog.String("key", key), elog.FieldErr(err))
	}
}
