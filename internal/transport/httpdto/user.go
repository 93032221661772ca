package httpdto

import (
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/user"

	"github.com/shopspring/decimal"
)

type UserDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Balance       decimal.Decimal  `json:"balance"`
	Preferences   user.Preferences `json:"preferences"`
	LastLoginTime time.Time        `json:"last_login_time"`
	CreatedAt     time.Time        `json:"created_at"`
}

func NewUserDTO(u user.User) UserDTO {
	return UserDTO{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Balance:       u.Balance,
		Preferences:   u.Preferences,
		LastLoginTime: u.LastLoginTime,
		CreatedAt:     u.CreatedAt,
	}
}
