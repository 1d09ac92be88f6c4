package cart

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pueblos-cart/internal/domain/product"
)

// Encode serializes snap into the durable snapshot format:
//
//	{"version":N,"updatedAt":"RFC3339","items":[{"product":{...},"quantity":N}]}
func Encode(snap Snapshot) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("version")
	e.UInt64(snap.Version)
	if !snap.UpdatedAt.IsZero() {
		e.FieldStart("updatedAt")
		e.Str(snap.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range snap.Items {
		encodeLine(e, it)
	}
	e.ArrEnd()
	e.ObjEnd()

	// The encoder goes back to the pool, so hand out a copy.
	return append([]byte(nil), e.Bytes()...)
}

func encodeLine(e *jx.Encoder, it LineItem) {
	e.ObjStart()
	e.FieldStart("product")
	encodeProduct(e, it.Product)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	p.Price.Encode(e)
	if p.Category != "" {
		e.FieldStart("category")
		e.Str(p.Category)
	}
	if p.Image != (product.Image{}) {
		e.FieldStart("image")
		e.ObjStart()
		e.FieldStart("thumbnail")
		e.Str(p.Image.Thumbnail)
		e.FieldStart("desktop")
		e.Str(p.Image.Desktop)
		e.ObjEnd()
	}
	e.ObjEnd()
}

// Decode parses a snapshot produced by Encode. Unknown fields are ignored and
// prices may be strings, numbers or null.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.UInt64()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			snap.Version = v
		case "updatedAt":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "updatedAt")
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return errors.Wrap(err, "updatedAt")
			}
			snap.UpdatedAt = t
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeLine(d)
				if err != nil {
					return errors.Wrapf(err, "items[%d]", len(snap.Items))
				}
				snap.Items = append(snap.Items, it)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "decode cart snapshot")
	}
	return snap, nil
}

func decodeLine(d *jx.Decoder) (LineItem, error) {
	var it LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product":
			p, err := decodeProduct(d)
			if err != nil {
				return errors.Wrap(err, "product")
			}
			it.Product = p
		case "quantity":
			q, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			it.Quantity = q
		default:
			return d.Skip()
		}
		return nil
	})
	return it, err
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = product.DecodePrice(d)
		case "category":
			p.Category, err = d.Str()
		case "image":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "thumbnail":
					p.Image.Thumbnail, err = d.Str()
				case "desktop":
					p.Image.Desktop, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}
