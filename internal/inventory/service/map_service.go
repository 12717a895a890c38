package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/entity"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/location"
	"github.com/ko-matsushita2404/inventory-dashboard/internal/inventory/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	mapCacheKey = "inventory:warehouse_map"
	mapCacheTTL = 30 * time.Second
)

// MapCell 在庫マップの1マス
type MapCell struct {
	Code          string   `json:"code"`
	Count         int      `json:"count"`
	ProductionNos []string `json:"production_nos,omitempty"`
}

// MapArea エリア単位のグリッド
type MapArea struct {
	Name    string    `json:"name"`
	Columns int       `json:"columns"`
	Cells   []MapCell `json:"cells"`
}

// WarehouseMap 在庫マップ全体。グリッドに載らない保管場所は
// Unmapped として場所別の集計を添える。
type WarehouseMap struct {
	Areas       []MapArea       `json:"areas"`
	Unmapped    []LocationGroup `json:"unmapped,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// MapService 在庫マップの集計。結果は短命のRedisキャッシュに載せ、
// 変異操作のたびに破棄する。
type MapService struct {
	partRepo *repository.PartRepository
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewMapService(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *MapService {
	return &MapService{partRepo: repos.Part, rdb: rdb, logger: logger}
}

// GetWarehouseMap 倉庫内在庫のマップ集計を返す
func (s *MapService) GetWarehouseMap(ctx context.Context) (*WarehouseMap, error) {
	if m := s.fromCache(ctx); m != nil {
		return m, nil
	}

	parts, err := s.partRepo.ListByStatus(ctx, entity.StatusInWarehouse)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗: %w", err)
	}

	m := buildWarehouseMap(parts)
	s.toCache(ctx, m)
	return m, nil
}

// GroupedLocations 倉庫内在庫の場所別グルーピング
func (s *MapService) GroupedLocations(ctx context.Context) ([]LocationGroup, error) {
	parts, err := s.partRepo.ListByStatus(ctx, entity.StatusInWarehouse)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗: %w", err)
	}
	return GroupByLocation(parts), nil
}

// InvalidateCache 変異操作後にマップキャッシュを破棄する
func (s *MapService) InvalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, mapCacheKey).Err(); err != nil {
		s.logger.Warn("マップキャッシュの破棄に失敗", zap.Error(err))
	}
}

func (s *MapService) fromCache(ctx context.Context) *WarehouseMap {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, mapCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("マップキャッシュの読み取りに失敗", zap.Error(err))
		}
		return nil
	}
	var m WarehouseMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}

func (s *MapService) toCache(ctx context.Context, m *WarehouseMap) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, mapCacheKey, data, mapCacheTTL).Err(); err != nil {
		s.logger.Warn("マップキャッシュの書き込みに失敗", zap.Error(err))
	}
}

// areaLayout 固定グリッドの定義
type areaLayout struct {
	name    string
	columns int
	codes   []string
}

// warehouseLayout 倉庫の物理レイアウト。
// 小エリアは左右×3段、大エリアは北9列×3段・南8列×3段。
func warehouseLayout() []areaLayout {
	small := areaLayout{name: "小エリア", columns: 2}
	for tier := 1; tier <= 3; tier++ {
		small.codes = append(small.codes,
			fmt.Sprintf("小左%d段", tier),
			fmt.Sprintf("小右%d段", tier),
		)
	}

	north := areaLayout{name: "大エリア北", columns: 9}
	for row := 1; row <= 3; row++ {
		for col := 1; col <= 9; col++ {
			north.codes = append(north.codes, fmt.Sprintf("大北%d-%d", col, row))
		}
	}

	south := areaLayout{name: "大エリア南", columns: 8}
	for row := 1; row <= 3; row++ {
		for col := 1; col <= 8; col++ {
			south.codes = append(south.codes, fmt.Sprintf("大南%d-%d", col, row))
		}
	}

	return []areaLayout{small, north, south}
}

func buildWarehouseMap(parts []entity.Part) *WarehouseMap {
	counts := make(map[string]int)
	prods := make(map[string]map[string]struct{})
	var unmapped []entity.Part

	for _, p := range parts {
		codes := location.ExtractCodes(p.StorageLocation)
		if len(codes) == 0 {
			unmapped = append(unmapped, p)
			continue
		}
		// 複数コードを持つレコードは各マスに数える
		for _, code := range codes {
			counts[code]++
			if p.ProductionNo == "" {
				continue
			}
			if prods[code] == nil {
				prods[code] = make(map[string]struct{})
			}
			prods[code][p.ProductionNo] = struct{}{}
		}
	}

	layouts := warehouseLayout()
	areas := make([]MapArea, 0, len(layouts))
	for _, layout := range layouts {
		cells := make([]MapCell, 0, len(layout.codes))
		for _, code := range layout.codes {
			nos := make([]string, 0, len(prods[code]))
			for no := range prods[code] {
				nos = append(nos, no)
			}
			sort.Strings(nos)
			cells = append(cells, MapCell{Code: code, Count: counts[code], ProductionNos: nos})
		}
		areas = append(areas, MapArea{Name: layout.name, Columns: layout.columns, Cells: cells})
	}

	return &WarehouseMap{
		Areas:       areas,
		Unmapped:    GroupByLocation(unmapped),
		GeneratedAt: time.Now(),
	}
}
