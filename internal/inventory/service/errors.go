package service

import "errors"

// 入力バリデーションと業務ルールのエラー定義。
// ハンドラ層で errors.Is によりHTTPステータスへ変換される。
// ストア書き込みより前に検査し、部分適用を起こさない。
var (
	ErrEmptySearchTerm      = errors.New("検索キーワードを入力してください")
	ErrProductionNoRequired = errors.New("製番を入力してください")
	ErrLocationRequired     = errors.New("保管場所を入力してください")
	ErrInvalidQuantity      = errors.New("数量は1以上の整数で入力してください")
	ErrInsufficientQuantity = errors.New("納入残数が不足しています")
	ErrInvalidStatus        = errors.New("不正なステータスです")
)
