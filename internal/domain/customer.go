package domain

import "time"

// Customer — запись справочника клиентов. Email уникален в пределах справочника.
type Customer struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
	// UpdatedAt нулевой, пока запись ни разу не обновлялась.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля при создании.
func (c *Customer) Validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrEmailRequired)
	}
	if c.Phone == "" {
		errs = append(errs, ErrPhoneRequired)
	}

	return errs
}
