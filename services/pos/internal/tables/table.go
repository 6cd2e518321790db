package tables

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

var ErrDuplicateName = errors.New("table name already in use")

type Table struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable(name string) *Table {
	return &Table{
		ID:   apt.GenerateNewID(),
		Name: name,
	}
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

var numericToken = regexp.MustCompile(`\d+`)

// Number returns the first run of digits in a table name, 0 when there is none.
func Number(name string) int {
	token := numericToken.FindString(name)
	if token == "" {
		return 0
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return n
}

// Sort orders tables by the number embedded in their names, so "T2" comes
// before "T10". Ties keep their relative order.
func Sort(tables []*Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		return Number(tables[i].Name) < Number(tables[j].Name)
	})
}
