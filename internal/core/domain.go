package core

import (
	"errors"
	"strings"
)

// Category is one of the fixed expense categories the upstream API accepts.
type Category string

const (
	CategoryLuz        Category = "luz"
	CategoryAgua       Category = "agua"
	CategoryInternet   Category = "internet"
	CategoryGas        Category = "gas"
	CategoryCondominio Category = "condominio"
	CategoryLimpeza    Category = "limpeza"
	CategoryManutencao Category = "manutencao"
	CategoryOutros     Category = "outros"
)

// categoryLabels maps wire keys to the display labels used in reports.
var categoryLabels = map[Category]string{
	CategoryLuz:        "Luz",
	CategoryAgua:       "Água",
	CategoryInternet:   "Internet",
	CategoryGas:        "Gás",
	CategoryCondominio: "Condomínio",
	CategoryLimpeza:    "Limpeza",
	CategoryManutencao: "Manutenção",
	CategoryOutros:     "Outros",
}

// Categories lists all valid categories in display order.
func Categories() []Category {
	return []Category{
		CategoryLuz, CategoryAgua, CategoryInternet, CategoryGas,
		CategoryCondominio, CategoryLimpeza, CategoryManutencao, CategoryOutros,
	}
}

// Label returns the display label, falling back to the raw key for values the
// enum does not know (the upstream API is the authority on the set).
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// StoredStatus is the server-reported lifecycle flag on an expense. Only two
// values exist upstream; "vencida" is derived, never stored.
type StoredStatus string

const (
	StoredPending StoredStatus = "pendente"
	StoredPaid    StoredStatus = "pago"
)

// ParseStoredStatus normalizes the upstream flag, which arrives in mixed case
// ("PAGO", "Pendente"). Anything unrecognized is treated as pending, matching
// the source system's fallback.
func ParseStoredStatus(s string) StoredStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(StoredPaid)) {
		return StoredPaid
	}
	return StoredPending
}

// EffectiveStatus is the derived lifecycle state of an expense.
type EffectiveStatus string

const (
	StatusPending EffectiveStatus = "pendente"
	StatusOverdue EffectiveStatus = "vencida"
	StatusPaid    EffectiveStatus = "pago"
)

// Label returns the report label for the status.
func (s EffectiveStatus) Label() string {
	switch s {
	case StatusPaid:
		return "Pago"
	case StatusOverdue:
		return "Vencida"
	default:
		return "Pendente"
	}
}

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
)

// Expense is a shared bill of the república. Records are owned by the
// upstream API; this layer only reads and classifies them.
type Expense struct {
	ID          int64
	Description string
	TotalValue  Money
	DueDate     CalendarDate
	Category    Category
	Status      StoredStatus
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.TotalValue.Validate(); err != nil {
		return err
	}
	if err := e.DueDate.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Payment records one member settling their share of an expense.
type Payment struct {
	ID         int64
	ExpenseID  int64
	MemberID   int64
	AmountPaid Money
	PaidAt     Instant
}

func (p Payment) Validate() error {
	return p.AmountPaid.Validate()
}

// Member is a resident of the república.
type Member struct {
	ID        int64
	FullName  string
	Email     string
	Telephone string
	RoomID    *int64
}

// Snapshot is the complete data set for one república: everything the
// derivation layer needs, fetched together so every view computes from the
// same state.
type Snapshot struct {
	RepublicID int64
	Expenses   []Expense
	Members    []Member
	Payments   []Payment
}

// MemberName resolves a member id to a display name.
func (s Snapshot) MemberName(memberID int64) string {
	for _, m := range s.Members {
		if m.ID == memberID {
			return m.FullName
		}
	}
	return "Desconhecido"
}
