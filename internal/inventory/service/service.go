package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/location"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services サービス集合
type Services struct {
	Part   *PartService
	Map    *MapService
	Import *ImportService
}

// NewServices サービス集合を作成
func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *Services {
	mapSvc := NewMapService(repos, rdb, logger)
	partSvc := NewPartService(repos, mapSvc, logger)
	return &Services{
		Part:   partSvc,
		Map:    mapSvc,
		Import: NewImportService(repos, mapSvc, logger),
	}
}

// LocationGroup 正規化済み保管場所ごとの集計結果
type LocationGroup struct {
	Location      string   `json:"location"`
	Count         int      `json:"count"`
	ProductionNos []string `json:"production_nos"`
}

// GroupByLocation は部品列を正規化済み保管場所で分割し、
// 件数と製番の一覧（重複なし・辞書順）を集計する。
func GroupByLocation(parts []entity.Part) []LocationGroup {
	counts := make(map[string]int)
	prods := make(map[string]map[string]struct{})

	for _, p := range parts {
		key := location.Normalize(p.StorageLocation)
		if key == "" {
			key = "未設定"
		}
		counts[key]++
		if p.ProductionNo == "" {
			continue
		}
		if prods[key] == nil {
			prods[key] = make(map[string]struct{})
		}
		prods[key][p.ProductionNo] = struct{}{}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]LocationGroup, 0, len(keys))
	for _, key := range keys {
		nos := make([]string, 0, len(prods[key]))
		for no := range prods[key] {
			nos = append(nos, no)
		}
		sort.Strings(nos)
		groups = append(groups, LocationGroup{
			Location:      key,
			Count:         counts[key],
			ProductionNos: nos,
		})
	}
	return groups
}

// atoiDefault は数値でない入力を既定値へ落とす。
// 画面からの値は型なし文字列で届くため、パース失敗で落とさない。
func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
