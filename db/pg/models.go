package pg

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbt "traveleasy/db/db"
)

// ExpenseMap stores the per-day expense map as a JSONB column, keeping
// the document shape of the original dias field.
type ExpenseMap map[string][]dbt.Expense

func (m ExpenseMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *ExpenseMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExpenseMap", value)
	}
	return json.Unmarshal(raw, m)
}

type TripModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerUID    string     `gorm:"column:uid;size:128;not null;index"`
	Destination string     `gorm:"column:local;size:255;not null"`
	Budget      float64    `gorm:"column:orcamento;type:numeric(12,2);not null"`
	PeriodStart time.Time  `gorm:"column:periodo_inicio;not null"`
	PeriodEnd   time.Time  `gorm:"column:periodo_fim;not null"`
	CreatedAt   time.Time  `gorm:"column:criada_em;not null"`
	Days        ExpenseMap `gorm:"column:dias;type:jsonb"`
}

// TableName keeps the fixed viagens collection name.
func (TripModel) TableName() string {
	return "viagens"
}

type ProfileModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	UID      string    `gorm:"column:uid;size:128;not null;uniqueIndex"`
	FullName string    `gorm:"column:nome_completo;size:255;not null"`
	Phone    string    `gorm:"column:celular;size:32;not null"`
	Email    string    `gorm:"column:email;size:255;not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the fixed usuarios collection name.
func (ProfileModel) TableName() string {
	return "usuarios"
}
