package validators

import (
	"errors"

	"vidcollab/api/internal/model"
)

var ErrRoleInvalid = errors.New("role must be youtuber or editor")

func RoleValidator(r string) (model.Role, error) {
	switch role := model.Role(r); role {
	case model.RoleYoutuber, model.RoleEditor:
		return role, nil
	default:
		return "", ErrRoleInvalid
	}
}
