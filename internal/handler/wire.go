package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/profile"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

const maxBodyBytes = 1 << 20

// Encoding.

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func (h *Handler) encodeDrink(e *jx.Encoder, d catalog.Drink) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(d.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(d.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(d.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Int64(d.Price) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(d.Image)) })
		e.Field("is_active", func(e *jx.Encoder) { e.Bool(d.Active) })
	})
}

func (h *Handler) encodeDrinks(e *jx.Encoder, drinks []catalog.Drink) {
	e.Arr(func(e *jx.Encoder) {
		for _, d := range drinks {
			h.encodeDrink(e, d)
		}
	})
}

func encodeOptions(e *jx.Encoder, opts []catalog.Option) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range opts {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(o.Name) })
				e.Field("price", func(e *jx.Encoder) { e.Int64(o.Price) })
			})
		}
	})
}

func encodeUser(e *jx.Encoder, u user.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(u.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(u.Name) })
		e.Field("points", func(e *jx.Encoder) { e.Int64(u.Points) })
		e.Field("avatar", func(e *jx.Encoder) {
			if u.Avatar == nil {
				e.Null()
				return
			}
			e.Str(*u.Avatar)
		})
		e.Field("created_at", func(e *jx.Encoder) { encodeTime(e, u.CreatedAt) })
	})
}

func encodeUsers(e *jx.Encoder, users []user.User) {
	e.Arr(func(e *jx.Encoder) {
		for _, u := range users {
			encodeUser(e, u)
		}
	})
}

func encodeItems(e *jx.Encoder, items []order.Item) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
				e.Field("order_id", func(e *jx.Encoder) { e.Str(it.OrderID) })
				e.Field("drink_id", func(e *jx.Encoder) { e.Str(it.DrinkID) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
				e.Field("bean_option", func(e *jx.Encoder) { e.Str(it.BeanOption) })
				e.Field("milk_option", func(e *jx.Encoder) { e.Str(it.MilkOption) })
				e.Field("syrup_option", func(e *jx.Encoder) { e.Str(it.SyrupOption) })
				e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, it.Price) })
			})
		}
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total) })
		e.Field("points_earned", func(e *jx.Encoder) { e.Int64(o.PointsEarned) })
		e.Field("created_at", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("items", func(e *jx.Encoder) { encodeItems(e, o.Items) })
	})
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range orders {
			encodeOrder(e, o)
		}
	})
}

// encodeProfile uses the camelCase field names the client expects.
func encodeProfile(e *jx.Encoder, p *profile.Profile) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("user", func(e *jx.Encoder) { encodeUser(e, p.User) })
		e.Field("orderHistory", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, o := range p.Orders {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
						e.Field("date", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
						e.Field("items", func(e *jx.Encoder) { encodeItems(e, o.Items) })
						e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total) })
						e.Field("pointsEarned", func(e *jx.Encoder) { e.Int64(o.PointsEarned) })
					})
				}
			})
		})
		e.Field("totalSpent", func(e *jx.Encoder) { encodeDecimal(e, p.TotalSpent) })
		e.Field("totalPointsEarned", func(e *jx.Encoder) { e.Int64(p.TotalPointsEarned) })
	})
}

// Decoding.

// decodeBody reads a JSON object from the request body, calling fn for each
// key. Syntax and type errors become 400; errors built with
// errUnprocessable pass through.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errBadRequest("read body: %s", err)
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return errBadRequest("malformed JSON: %s", err)
	}
	return nil
}

func isNull(d *jx.Decoder) (bool, error) {
	if d.Next() != jx.Null {
		return false, nil
	}
	return true, d.Null()
}

// optString decodes a string that must not be null.
func optString(d *jx.Decoder, field string) (*string, error) {
	if null, err := isNull(d); err != nil || null {
		if err != nil {
			return nil, err
		}
		return nil, errUnprocessable("%s must not be null", field)
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optInt64(d *jx.Decoder, field string) (*int64, error) {
	if null, err := isNull(d); err != nil || null {
		if err != nil {
			return nil, err
		}
		return nil, errUnprocessable("%s must not be null", field)
	}
	v, err := d.Int64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optBool(d *jx.Decoder, field string) (*bool, error) {
	if null, err := isNull(d); err != nil || null {
		if err != nil {
			return nil, err
		}
		return nil, errUnprocessable("%s must not be null", field)
	}
	v, err := d.Bool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// nullableString decodes a string or null.
func nullableString(d *jx.Decoder) (*string, error) {
	if null, err := isNull(d); err != nil || null {
		return nil, err
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() != jx.Number {
		return decimal.Decimal{}, errors.New("expected number")
	}
	num, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(num.String())
}

func decodeOrderItem(d *jx.Decoder, i int) (order.ItemRequest, error) {
	item := order.ItemRequest{Quantity: 1}
	var hasDrink, hasPrice bool
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "drink_id":
			item.DrinkID, err = d.Str()
			hasDrink = true
		case "quantity":
			item.Quantity, err = d.Int()
		case "bean_option":
			item.BeanOption, err = d.Str()
		case "milk_option":
			item.MilkOption, err = d.Str()
		case "syrup_option":
			item.SyrupOption, err = d.Str()
		case "price":
			item.UnitPrice, err = decodeDecimal(d)
			hasPrice = true
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return item, err
	}
	switch {
	case !hasDrink || item.DrinkID == "":
		return item, errUnprocessable("items[%d].drink_id is required", i)
	case !hasPrice:
		return item, errUnprocessable("items[%d].price is required", i)
	}
	return item, nil
}

// decodePlaceOrder reads an order body. Client-sent user_id, total and
// points_earned are ignored: the path names the user and the server computes
// the totals.
func decodePlaceOrder(w http.ResponseWriter, r *http.Request) ([]order.ItemRequest, error) {
	var (
		items    []order.ItemRequest
		hasItems bool
	)
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		hasItems = true
		return d.Arr(func(d *jx.Decoder) error {
			item, err := decodeOrderItem(d, len(items))
			if err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !hasItems {
		return nil, errUnprocessable("items is required")
	}
	return items, nil
}

type createUserRequest struct {
	Name   string
	Points int64
	Avatar *string
}

func decodeCreateUser(w http.ResponseWriter, r *http.Request) (createUserRequest, error) {
	var req createUserRequest
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			var name *string
			name, err = nullableString(d)
			if name != nil {
				req.Name = *name
			}
		case "points":
			req.Points, err = d.Int64()
		case "avatar":
			req.Avatar, err = nullableString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeUserPatch(w http.ResponseWriter, r *http.Request) (user.Patch, error) {
	var p user.Patch
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = optString(d, "name")
		case "avatar":
			p.Avatar, err = nullableString(d)
			p.SetAvatar = true
		case "points":
			return errUnprocessable("points cannot be changed directly")
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return p, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return p, errUnprocessable("name must not be empty")
	}
	return p, nil
}

func decodeCreateDrink(w http.ResponseWriter, r *http.Request) (catalog.Drink, error) {
	drink := catalog.Drink{Active: true}
	var hasPrice bool
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
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
			hasPrice = true
		case "image":
			drink.Image, err = d.Str()
		case "is_active":
			drink.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return drink, err
	}
	if !hasPrice {
		return drink, errUnprocessable("price is required")
	}
	return drink, nil
}

func decodeDrinkPatch(w http.ResponseWriter, r *http.Request) (catalog.DrinkPatch, error) {
	var p catalog.DrinkPatch
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = optString(d, key)
		case "description":
			p.Description, err = optString(d, key)
		case "price":
			p.Price, err = optInt64(d, key)
		case "image":
			p.Image, err = optString(d, key)
		case "is_active":
			p.Active, err = optBool(d, key)
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (username, password string, err error) {
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "username":
			username, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return username, password, err
}
