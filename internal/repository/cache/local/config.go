package local

import (
	"slices"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/cache"
	ca "github.com/patrickmn/go-cache"
)

const DefaultTTL = 6 * time.Hour

var _ cache.CoverageCache = (*Cache)(nil)

// Cache 进程内缓存，返回的切片都是拷贝
type Cache struct {
	c *ca.Cache
}

func NewLocalCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{c: ca.New(ttl, ttl*2)}
}

func (l *Cache) Countries(providerName string) ([]domain.Country, bool) {
	v, ok := l.c.Get(cache.CountriesKey(providerName))
	if !ok {
		return nil, false
	}
	countries, ok := v.([]domain.Country)
	return slices.Clone(countries), ok
}

func (l *Cache) SetCountries(providerName string, countries []domain.Country) {
	l.c.SetDefault(cache.CountriesKey(providerName), slices.Clone(countries))
}

func (l *Cache) Coverage(providerName, countryCode string) (domain.CountryCoverage, bool) {
	v, ok := l.c.Get(cache.CoverageKey(providerName, countryCode))
	if !ok {
		return domain.CountryCoverage{}, false
	}
	coverage, ok := v.(domain.CountryCoverage)
	coverage.Networks = slices.Clone(coverage.Networks)
	return coverage, ok
}

func (l *Cache) SetCoverage(providerName string, coverage domain.CountryCoverage) {
	coverage.Networks = slices.Clone(coverage.Networks)
	l.c.SetDefault(cache.CoverageKey(providerName, coverage.CountryCode), coverage)
}
