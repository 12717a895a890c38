// Package location は保管場所コードの抽出と正規化を行う。
//
// 旧スキーマの時期に、在庫マップ画面のHTML断片がそのまま location 列へ
// 保存されてしまったレコードが残っている。場所ごとの集計はコードを
// 復元してからでないと意味を持たないため、読み取り側は必ずこの
// パッケージを通す。純粋関数のみでI/Oは行わない。
package location

import (
	"regexp"
	"sort"
	"strings"
)

// 倉庫エリアの接頭辞（固定の命名体系）
var areaPrefixes = []string{"大北", "大南", "小左", "小右"}

var (
	// コード本体: 接頭辞 + ゾーン番号-枝番 / 段番号 / ゾーン番号
	codePattern = regexp.MustCompile(`(?:大北|大南|小左|小右)(?:[0-9]+-[0-9]+|[0-9]+段|[0-9]+)`)
	exactCode   = regexp.MustCompile(`^(?:大北|大南|小左|小右)(?:[0-9]+-[0-9]+|[0-9]+段|[0-9]+)$`)

	// 誤保存されたマップHTMLの形: id="大北1-1" / zone-name">大北1-1<
	markupPattern = regexp.MustCompile(`id="([^"]+)"|zone-name">([^<]+)<`)
)

// ExtractCodes は生の location 値に含まれる場所コードを重複なしの
// 辞書順で返す。HTML断片・素のコードのどちらの形でも拾う。
// コードを1つも含まない入力（空文字や自由記述の場所）には空を返す。
func ExtractCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	seen := make(map[string]struct{})

	// マークアップ形からの抽出。id属性には場所以外の値も入るため、
	// コードの文法に完全一致するものだけ採用する。
	for _, m := range markupPattern.FindAllStringSubmatch(raw, -1) {
		code := m[1]
		if code == "" {
			code = m[2]
		}
		if exactCode.MatchString(code) {
			seen[code] = struct{}{}
		}
	}

	// 区切りに関係なく文字列中のどこにあっても拾う
	for _, code := range codePattern.FindAllString(raw, -1) {
		seen[code] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Normalize は抽出したコードを ", " 区切りの正規形へ直す。
// コードを含まない値は trim だけして自由記述のまま返す。
func Normalize(raw string) string {
	codes := ExtractCodes(raw)
	if len(codes) == 0 {
		return strings.TrimSpace(raw)
	}
	return strings.Join(codes, ", ")
}

// IsValid は値がコード1個の正規形かどうかを返す。
func IsValid(code string) bool {
	return exactCode.MatchString(code)
}

// IsInternal は移動先が倉庫内（エリア接頭辞を含む）かどうかを返す。
// 倉庫内移動ならステータスは変わらず、倉庫外への持ち出しなら
// moved_out へ遷移する。
func IsInternal(dest string) bool {
	for _, prefix := range areaPrefixes {
		if strings.Contains(dest, prefix) {
			return true
		}
	}
	return false
}
