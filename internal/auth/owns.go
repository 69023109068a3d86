package auth

import "github.com/hitoshi/blogapi/internal/model"

// Owned は所有者を持つリソースを表す。
type Owned interface {
	OwnerID() string
}

// Owns はactorがresourceの所有者かどうかを判定する。
// 未認証のactorや所有者が空のリソースは常にfalseとなる。
func Owns(actor model.Actor, resource Owned) bool {
	if !actor.IsAuthenticated() || resource == nil {
		return false
	}
	owner := resource.OwnerID()
	return owner != "" && owner == actor.UserID
}
