package model

import (
	"time"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
)

type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}
