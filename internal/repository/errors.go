package repository

import "errors"

// ErrNotFound は削除・更新対象のレコードが存在しないことを表す。
var ErrNotFound = errors.New("record not found")

// ErrDuplicateYandexID はyandex_idのユニーク制約違反を表す。
// 同一外部IDの同時初回ログインで発生し、呼び出し側は再取得で回復する。
var ErrDuplicateYandexID = errors.New("duplicate yandex_id")
