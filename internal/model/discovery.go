package model

import "time"

// DiscoveryLog はユーザーがカードの楽曲と出会った記録を表す。
// (UserID, TrackURI) の組につき最大1件。AddedはfalseからtrueへのみでU字遷移しない。
type DiscoveryLog struct {
	ID        string
	UserID    string
	CardTitle string
	TrackURI  string
	Added     bool
	CreatedAt time.Time
}

// ManagedPlaylist はサービスがユーザーごとに1つだけ管理するプレイリストの対応を表す。
// UserIDが一意キー。行は上流に実在するプレイリストを指すことを期待し、
// ずれは遅延検証で自己修復される。
type ManagedPlaylist struct {
	UserID     string
	PlaylistID string
	CreatedAt  time.Time
}
