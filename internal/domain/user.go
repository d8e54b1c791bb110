package domain

import "time"

// Role задаёт уровень доступа учётной записи.
type Role string

const (
	// RoleAdmin — привилегированный доступ без ограничений по клиенту.
	RoleAdmin Role = "admin"
	// RoleUser — обычный доступ, привязанный к одному клиенту.
	RoleUser Role = "user"
)

// Valid проверяет принадлежность роли закрытому множеству.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Privileged сообщает, снимает ли роль ограничение ownership-scope.
func (r Role) Privileged() bool {
	return r == RoleAdmin
}

// User — учётная запись для входа в систему. Для роли user хранится
// привязка к записи клиента, через которую работает ownership-scope.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Email        string
	// CustomerID пуст для администраторов.
	CustomerID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session — выданный при входе токен и связанная с ним идентичность.
// Хранится во внешнем session store, никогда в глобальном состоянии процесса.
type Session struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	CustomerID string    `json:"customer_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Scope возвращает ограничение видимости заказов для этой сессии.
// Обычная сессия без привязанного клиента не видит ни одного заказа:
// пустая привязка не повышает её до привилегированной.
func (s Session) Scope() OrderScope {
	if s.Role.Privileged() {
		return OrderScope{}
	}
	if s.CustomerID == "" {
		return DenyAllScope()
	}
	return OrderScope{CustomerID: s.CustomerID}
}
