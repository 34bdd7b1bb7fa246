// Package model はドメインモデルを定義する。
package model

import "time"

// Card は日替わりで提示する楽曲コンテンツカードを表す。
// シード後は不変で、更新はuri単位のupsertのみ許可する。
type Card struct {
	ID          string
	Title       string
	Artist      string
	URI         string // Spotifyトラック URI（一意）
	Img         string
	Cover       string
	Description string
}

// DailyCardAssignment はユーザーへのカード割り当て（UTC日単位）を表す。
// (UserID, CardID, Date) で一意。一度確定した日の割り当ては不変。
type DailyCardAssignment struct {
	UserID string
	CardID string
	Date   time.Time // UTC真夜中に正規化
}
