package main

import (
	"context"
	"os"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/repository"
	"github.com/iliyamo/restaurant-orders/internal/utils"
)

type fakeStore struct {
	tables map[int]model.Table
	items  map[string]model.MenuItem
	users  map[string]model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[int]model.Table{}, items: map[string]model.MenuItem{}, users: map[string]model.User{}}
}

func (f *fakeStore) InsertTable(_ context.Context, t model.Table) (bool, error) {
	if _, ok := f.tables[t.Number]; ok {
		return false, nil
	}
	f.tables[t.Number] = t
	return true, nil
}

func (f *fakeStore) InsertMenuItem(_ context.Context, m model.MenuItem) (bool, error) {
	if _, ok := f.items[m.Name]; ok {
		return false, nil
	}
	f.items[m.Name] = m
	return true, nil
}

func (f *fakeStore) CreateUser(_ context.Context, username, hash string, role model.Role, superuser bool) (model.User, error) {
	if _, ok := f.users[username]; ok {
		return model.User{}, repository.ErrUserExists
	}
	u := model.User{Username: username, PasswordHash: hash, Role: role, IsSuperuser: superuser}
	f.users[username] = u
	return u, nil
}

func TestExampleSeedParses(t *testing.T) {
	f, err := os.Open("seed.example.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := parseSeed(f)
	if err != nil {
		t.Fatalf("parseSeed: %v", err)
	}
	if len(s.Tables) != 4 || len(s.Menu) != 3 || len(s.Users) != 4 {
		t.Fatalf("got %d tables, %d items, %d users", len(s.Tables), len(s.Menu), len(s.Users))
	}
	if s.Tables[0].Capacity != 4 || s.Tables[2].Capacity != 6 {
		t.Fatalf("capacities = %d, %d", s.Tables[0].Capacity, s.Tables[2].Capacity)
	}
	if s.Menu[1].Price.StringFixed(2) != "8.90" {
		t.Fatalf("price = %s", s.Menu[1].Price)
	}
	if orTrue(s.Menu[2].Available) {
		t.Fatal("Tiramisu should be unavailable")
	}
}

func TestParseSeedRejects(t *testing.T) {
	cases := map[string]string{
		"negative price": "menu_items:\n  - name: Soup\n    price: \"-1\"\n",
		"bad role":       "users:\n  - username: x\n    password: y\n    role: chef\n",
		"no password":    "users:\n  - username: x\n",
		"table number":   "tables:\n  - capacity: 2\n",
		"unknown field":  "tables:\n  - number: 1\n    seats: 2\n",
	}
	for name, doc := range cases {
		if _, err := parseSeed(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseSeedDefaultsRole(t *testing.T) {
	s, err := parseSeed(strings.NewReader("users:\n  - username: bob\n    password: pw\n"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Users[0].Role != string(model.DefaultRole) {
		t.Fatalf("role = %q", s.Users[0].Role)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	doc := `
tables:
  - number: 1
menu_items:
  - name: Soup
    price: 3.456
users:
  - username: chef
    password: secret
    role: cook
`
	s, err := parseSeed(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	st := newFakeStore()
	ctx := context.Background()

	res, err := apply(ctx, st, s, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res != (Result{Tables: 1, MenuItems: 1, Users: 1}) {
		t.Fatalf("first run = %+v", res)
	}
	if got := st.items["Soup"].Price.StringFixed(2); got != "3.46" {
		t.Fatalf("price = %s, want 3.46", got)
	}
	u := st.users["chef"]
	if u.Role != model.RoleCook || !utils.VerifyPassword(u.PasswordHash, "secret") {
		t.Fatalf("user = %+v", u)
	}
	if !st.tables[1].IsAvailable {
		t.Fatal("table should default to available")
	}

	res, err = apply(ctx, st, s, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if res != (Result{}) {
		t.Fatalf("second run = %+v, want nothing new", res)
	}
}
