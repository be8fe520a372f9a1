package models

// Customer identity is owned by an external subsystem; this core keeps the
// minimal reference shape it snapshots onto quotes and receivables.
type Customer struct {
	Id          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	TaxID       string `json:"tax_id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Active      bool   `json:"-"`
}

// Employee backs the internal-employee pseudo-customer: an employee buying a
// wrap is billed through internal consumption, never through a customer row.
type Employee struct {
	Id     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"not null"`
	TaxID  string `json:"tax_id"`
	Active bool   `json:"-"`
}
