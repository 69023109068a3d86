package model

// Actor は認証済みリクエストの主体を表す。
// セッションミドルウェアがリクエストごとに1度だけ生成し、以後変更しない。
type Actor struct {
	UserID    string
	SessionID string
}

// IsAuthenticated はActorがユーザーに紐付いているかどうかを返す。
func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}
