package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrDrinkNotFound is returned when a drink does not exist, or is inactive
	// for reads that only see the public menu.
	ErrDrinkNotFound = errors.New("drink not found")
	// ErrUnknownCategory is returned for an option category outside beans, milk
	// and syrups.
	ErrUnknownCategory = errors.New("unknown option category")
	// ErrDrinkExists is returned when creating a drink with a taken id.
	ErrDrinkExists = errors.New("drink already exists")
	// ErrInvalidDrink is returned for drinks or patches with unusable fields.
	ErrInvalidDrink = errors.New("invalid drink")
)

// Drink is a menu item. Price is in minor currency units.
type Drink struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Image       string
	Active      bool
}

// Validate checks the fields an admin must provide.
func (d Drink) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Wrap(ErrInvalidDrink, "name is required")
	}
	if d.Price < 0 {
		return errors.Wrap(ErrInvalidDrink, "price must not be negative")
	}
	return nil
}

// Option is a drink customization with a price delta in minor currency units.
type Option struct {
	ID    string
	Name  string
	Price int64
}

// Category names one of the three independent option sets.
type Category string

const (
	Beans  Category = "beans"
	Milk   Category = "milk"
	Syrups Category = "syrups"
)

// Categories lists every option category in menu order.
var Categories = []Category{Beans, Milk, Syrups}

// ParseCategory validates a category name taken from a request path.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Beans, Milk, Syrups:
		return c, nil
	default:
		return "", errors.Wrapf(ErrUnknownCategory, "%q", s)
	}
}

// DrinkPatch is a partial drink update. Nil fields keep their stored value.
type DrinkPatch struct {
	Name        *string
	Description *string
	Price       *int64
	Image       *string
	Active      *bool
}

// Empty reports whether the patch would change nothing.
func (p DrinkPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Image == nil && p.Active == nil
}

// Validate checks the present fields.
func (p DrinkPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errors.Wrap(ErrInvalidDrink, "name must not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return errors.Wrap(ErrInvalidDrink, "price must not be negative")
	}
	return nil
}

// Repository defines catalog reads and the admin mutations.
type Repository interface {
	ListActive(ctx context.Context) ([]Drink, error)
	ListAll(ctx context.Context) ([]Drink, error)
	GetActive(ctx context.Context, id string) (*Drink, error)
	Get(ctx context.Context, id string) (*Drink, error)
	Create(ctx context.Context, d *Drink) error
	Update(ctx context.Context, id string, patch DrinkPatch) (*Drink, error)
	Delete(ctx context.Context, id string) error
	ListOptions(ctx context.Context, c Category) ([]Option, error)
}
