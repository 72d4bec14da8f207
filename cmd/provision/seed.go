package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/repository"
	"github.com/iliyamo/restaurant-orders/internal/utils"
)

const defaultCapacity = 4

// Seed is the provisioning file layout.
type Seed struct {
	Tables []SeedTable `yaml:"tables"`
	Menu   []SeedItem  `yaml:"menu_items"`
	Users  []SeedUser  `yaml:"users"`
}

type SeedTable struct {
	Number    int   `yaml:"number"`
	Capacity  int   `yaml:"capacity"`
	Available *bool `yaml:"available"`
}

type SeedItem struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	Available   *bool           `yaml:"available"`
}

type SeedUser struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Superuser bool   `yaml:"superuser"`
}

// parseSeed decodes and validates a seed file.  Missing capacities default
// to 4, missing availability flags to true and missing roles to waiter.
func parseSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for i := range s.Tables {
		t := &s.Tables[i]
		if t.Number < 1 {
			return Seed{}, fmt.Errorf("tables[%d]: number must be positive", i)
		}
		if t.Capacity == 0 {
			t.Capacity = defaultCapacity
		}
		if t.Capacity < 0 {
			return Seed{}, fmt.Errorf("table %d: capacity must be positive", t.Number)
		}
	}
	for i := range s.Menu {
		m := &s.Menu[i]
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return Seed{}, fmt.Errorf("menu_items[%d]: name is required", i)
		}
		if m.Price.IsNegative() {
			return Seed{}, fmt.Errorf("menu item %q: price must not be negative", m.Name)
		}
	}
	for i := range s.Users {
		u := &s.Users[i]
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" || u.Password == "" {
			return Seed{}, fmt.Errorf("users[%d]: username and password are required", i)
		}
		if u.Role == "" {
			u.Role = string(model.DefaultRole)
		}
		if _, ok := model.ParseRole(u.Role); !ok {
			return Seed{}, fmt.Errorf("user %s: unknown role %q", u.Username, u.Role)
		}
	}
	return s, nil
}

func orTrue(b *bool) bool { return b == nil || *b }

type seedStore interface {
	InsertTable(ctx context.Context, t model.Table) (bool, error)
	InsertMenuItem(ctx context.Context, m model.MenuItem) (bool, error)
	CreateUser(ctx context.Context, username, passwordHash string, role model.Role, superuser bool) (model.User, error)
}

// Result counts the rows apply created.
type Result struct {
	Tables, MenuItems, Users int
}

// apply inserts every seed row that does not exist yet.  Running it twice
// changes nothing.
func apply(ctx context.Context, st seedStore, s Seed, bcryptCost int) (Result, error) {
	var res Result
	for _, t := range s.Tables {
		ok, err := st.InsertTable(ctx, model.Table{Number: t.Number, Capacity: t.Capacity, IsAvailable: orTrue(t.Available)})
		if err != nil {
			return res, fmt.Errorf("table %d: %w", t.Number, err)
		}
		if ok {
			res.Tables++
		}
	}
	for _, m := range s.Menu {
		ok, err := st.InsertMenuItem(ctx, model.MenuItem{
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price.Round(2),
			Available:   orTrue(m.Available),
		})
		if err != nil {
			return res, fmt.Errorf("menu item %q: %w", m.Name, err)
		}
		if ok {
			res.MenuItems++
		}
	}
	for _, u := range s.Users {
		hash, err := utils.HashPassword(u.Password, bcryptCost)
		if err != nil {
			return res, fmt.Errorf("user %s: %w", u.Username, err)
		}
		role, _ := model.ParseRole(u.Role)
		if _, err := st.CreateUser(ctx, u.Username, hash, role, u.Superuser); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				continue
			}
			return res, fmt.Errorf("user %s: %w", u.Username, err)
		}
		res.Users++
	}
	return res, nil
}
