package domain

import "time"

// Product — товар каталога. Остаток меняют редактирование каталога и
// протокол резервирования (только поле Stock).
type Product struct {
	ID   string
	Name string
	// PriceMinor — цена в минимальных денежных единицах (например, центы),
	// чтобы избежать плавающей точки в деньгах.
	PriceMinor  int64
	Description string
	// ImageURL — непрозрачная ссылка на изображение; хранение файлов вне системы.
	ImageURL string
	// Stock — остаток на складе, всегда >= 0.
	Stock     int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля и диапазоны при создании.
func (p *Product) Validate() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
