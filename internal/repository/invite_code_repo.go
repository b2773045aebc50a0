package repository

import (
	"context"

	"emberchat/authgate/internal/model"
)

type InviteCodeRepository interface {
	Create(ctx context.Context, code *model.InviteCode) error
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	List(ctx context.Context) ([]model.InviteCode, error)
	SetActive(ctx context.Context, code string, active bool) error
}
