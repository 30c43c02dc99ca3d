package seed

import (
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/coffee-shop/db"
	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

// Catalog is the menu inserted into an empty database.
type Catalog struct {
	Drinks  []catalog.Drink
	Options map[catalog.Category][]catalog.Option
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(db.Catalog)
}

// LoadCatalog reads a catalog file. Paths ending in .gz are decompressed.
// An empty path yields the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a catalog document:
//
//	{"drinks": [...], "beans": [...], "milk": [...], "syrups": [...]}
//
// Drinks default to active when is_active is omitted.
func ParseCatalog(data []byte) (*Catalog, error) {
	c := &Catalog{Options: make(map[catalog.Category][]catalog.Option)}
	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "drinks" {
			return d.Arr(func(d *jx.Decoder) error {
				drink, err := decodeDrink(d)
				if err != nil {
					return err
				}
				c.Drinks = append(c.Drinks, drink)
				return nil
			})
		}
		cat, err := catalog.ParseCategory(key)
		if err != nil {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			opt, err := decodeOption(d)
			if err != nil {
				return err
			}
			c.Options[cat] = append(c.Options[cat], opt)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	seen := make(map[string]struct{}, len(c.Drinks))
	for _, drink := range c.Drinks {
		if drink.ID == "" {
			return nil, errors.Errorf("drink %q has no id", drink.Name)
		}
		if _, ok := seen[drink.ID]; ok {
			return nil, errors.Errorf("duplicate drink id %q", drink.ID)
		}
		seen[drink.ID] = struct{}{}
	}
	return c, nil
}

func decodeDrink(d *jx.Decoder) (catalog.Drink, error) {
	drink := catalog.Drink{Active: true}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			drink.ID, err = d.Str()
		case "name":
			drink.Name, err = d.Str()
		case "description":
			drink.Description, err = d.Str()
		case "price":
			drink.Price, err = d.Int64()
		case "image":
			drink.Image, err = d.Str()
		case "is_active":
			drink.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return drink, err
}

func decodeOption(d *jx.Decoder) (catalog.Option, error) {
	var opt catalog.Option
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			opt.ID, err = d.Str()
		case "name":
			opt.Name, err = d.Str()
		case "price":
			opt.Price, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	})
	return opt, err
}
