package auth

import "github.com/hitoshi/tutorhub/internal/model"

// Authorize は操作の可否を判定する。
// actorRole が allowed のいずれかであり、ownerID が空でなければ actorID が所有者である場合に許可する。
// ADMIN は所有者判定を省略する。
func Authorize(actorRole model.Role, actorID, ownerID string, allowed ...model.Role) bool {
	permitted := false
	for _, r := range allowed {
		if r == actorRole {
			permitted = true
			break
		}
	}
	if !permitted {
		return false
	}
	if ownerID == "" || actorRole == model.RoleAdmin {
		return true
	}
	return actorID != "" && actorID == ownerID
}
