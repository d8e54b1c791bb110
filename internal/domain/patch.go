package domain

import (
	"strings"
	"time"
)

// Частичные обновления: присутствие поля определяется указателем (nil — поле
// не прислано). Для строковых полей, которые обязаны быть непустыми (имя,
// email, телефон), прислать пустую строку нельзя — такое значение
// игнорируется, как в исходном API. Адрес и описание можно затирать пустыми.
// Числовые поля применяются по факту присутствия: stock=0 — валидное обновление.

// CustomerPatch — частичное обновление клиента.
type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// Empty сообщает, что в патче нет ни одного поля.
func (p CustomerPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Address == nil
}

// Apply накладывает патч на клиента и ставит отметку обновления.
// UpdatedAt ставится всегда, в том числе для пустого патча — так ведёт
// себя исходная система.
func (p CustomerPatch) Apply(c *Customer, now time.Time) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		c.Name = *p.Name
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) != "" {
		c.Email = *p.Email
	}
	if p.Phone != nil && strings.TrimSpace(*p.Phone) != "" {
		c.Phone = *p.Phone
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	c.UpdatedAt = now
}

// ProductPatch — частичное обновление товара.
type ProductPatch struct {
	Name        *string
	PriceMinor  *int64
	Description *string
	ImageURL    *string
	Stock       *int32
}

// Empty сообщает, что в патче нет ни одного поля.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.PriceMinor == nil && p.Description == nil &&
		p.ImageURL == nil && p.Stock == nil
}

// Validate проверяет диапазоны присланных полей до применения.
func (p ProductPatch) Validate() error {
	if p.PriceMinor != nil && *p.PriceMinor < 0 {
		return ErrPriceNegative
	}
	if p.Stock != nil && *p.Stock < 0 {
		return ErrStockNegative
	}
	return nil
}

// Apply накладывает патч на товар и ставит отметку обновления.
func (p ProductPatch) Apply(prod *Product, now time.Time) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		prod.Name = *p.Name
	}
	if p.PriceMinor != nil {
		prod.PriceMinor = *p.PriceMinor
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.ImageURL != nil {
		prod.ImageURL = *p.ImageURL
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	prod.UpdatedAt = now
}
