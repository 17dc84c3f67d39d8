package cache

import (
	"fmt"
	"strings"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
)

const (
	CountriesPrefix = "countries"
	CoveragePrefix  = "coverage"
)

// CoverageCache 供应商国家列表和覆盖信息的缓存，变化很慢
type CoverageCache interface {
	Countries(providerName string) ([]domain.Country, bool)
	SetCountries(providerName string, countries []domain.Country)
	Coverage(providerName, countryCode string) (domain.CountryCoverage, bool)
	SetCoverage(providerName string, coverage domain.CountryCoverage)
}

func CountriesKey(providerName string) string {
	return fmt.Sprintf("%s:%s", CountriesPrefix, providerName)
}

func CoverageKey(providerName, countryCode string) string {
	return fmt.Sprintf("%s:%s:%s", CoveragePrefix, providerName, strings.ToUpper(countryCode))
}
