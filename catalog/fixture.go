package catalog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/brucePedroGomes/rocketShoes/cart"
)

// Fixture is the database a catalog service serves: stock levels and product
// metadata, keyed by product id.
type Fixture struct {
	Stock    []cart.StockRecord `json:"stock"`
	Products []cart.Product     `json:"products"`
}

// LoadFixture reads a fixture from a JSON file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, errors.Wrapf(err, "failed to read fixture %s", path)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, errors.Wrapf(err, "failed to parse fixture %s", path)
	}
	return f, nil
}

func (f Fixture) stock(id int) (cart.StockRecord, bool) {
	for _, s := range f.Stock {
		if s.ID == id {
			return s, true
		}
	}
	return cart.StockRecord{}, false
}

func (f Fixture) product(id int) (cart.Product, bool) {
	for _, p := range f.Products {
		if p.ID == id {
			return p, true
		}
	}
	return cart.Product{}, false
}
