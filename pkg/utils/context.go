package utils

import (
	"context"

	"homemassage/pkg/contextkeys"
	apperrors "homemassage/pkg/errors"
)

// GetUserIDFromCtx достаёт ID аутентифицированного пользователя,
// положенный Auth-мидлварью.
func GetUserIDFromCtx(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(contextkeys.UserIDKey).(int)
	if !ok {
		return 0, apperrors.ErrUnauthorized
	}
	return int64(id), nil
}

// GetUserRoleFromCtx достаёт роль пользователя из контекста запроса.
func GetUserRoleFromCtx(ctx context.Context) (string, error) {
	role, ok := ctx.Value(contextkeys.UserRoleKey).(string)
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	return role, nil
}
