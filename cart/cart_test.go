package cart_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brucePedroGomes/rocketShoes/cart"
)

var (
	sneaker = product(1, "Tênis de Caminhada Leve Confortável", "179.90")
	runner  = product(2, "Tênis VR Caminhada Confortável", "139.90")
	trainer = product(3, "Tênis Adidas Duramo Lite 2.0", "219.90")
)

func TestNewCartValidates(t *testing.T) {
	_, err := cart.NewCart(lineOf(sneaker, 0))
	assert.Error(t, err)

	_, err = cart.NewCart(cart.CartLine{ID: 0, Amount: 1})
	assert.Error(t, err)

	_, err = cart.NewCart(lineOf(sneaker, 1), lineOf(sneaker, 2))
	assert.Error(t, err)

	c, err := cart.NewCart(lineOf(sneaker, 1), lineOf(runner, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestCartAccessors(t *testing.T) {
	c, err := cart.NewCart(lineOf(runner, 2), lineOf(sneaker, 1))
	require.NoError(t, err)

	line, ok := c.Find(sneaker.ID)
	require.True(t, ok)
	assert.Equal(t, 1, line.Amount)

	_, ok = c.Find(trainer.ID)
	assert.False(t, ok)

	assert.Equal(t, 3, c.ItemCount())
	assert.Equal(t, map[int]int{1: 1, 2: 2}, c.AmountByProduct())
	assert.True(t, decimal.RequireFromString("279.80").Equal(lineOf(runner, 2).Subtotal()))
	assert.True(t, decimal.RequireFromString("459.70").Equal(c.Total()), c.Total().String())

	var empty cart.Cart
	assert.Zero(t, empty.Len())
	assert.True(t, decimal.Zero.Equal(empty.Total()))
	assert.Empty(t, empty.Lines())
}

func TestCartLinesIsACopy(t *testing.T) {
	c, err := cart.NewCart(lineOf(sneaker, 1))
	require.NoError(t, err)

	lines := c.Lines()
	lines[0].Amount = 99

	got, _ := c.Find(sneaker.ID)
	assert.Equal(t, 1, got.Amount)
}

func TestCodecRoundTrip(t *testing.T) {
	c, err := cart.NewCart(lineOf(runner, 2), lineOf(sneaker, 1))
	require.NoError(t, err)

	data, err := cart.Marshal(c)
	require.NoError(t, err)

	back, err := cart.Unmarshal(data)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Lines(), back.Lines()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, c.Equal(back))
}

func TestMarshalEmptyCart(t *testing.T) {
	data, err := cart.Marshal(cart.Cart{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestUnmarshalAcceptsNumericPrices(t *testing.T) {
	c, err := cart.Unmarshal([]byte(`[{"id":1,"title":"Tênis","price":179.9,"image":"x.jpg","amount":2}]`))
	require.NoError(t, err)

	line, ok := c.Find(1)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("179.9").Equal(line.Price))
	assert.Equal(t, 2, line.Amount)
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	for name, data := range map[string]string{
		"not json":     `{{`,
		"object":       `{"id":1}`,
		"zero amount":  `[{"id":1,"amount":0}]`,
		"duplicate id": `[{"id":1,"amount":1},{"id":1,"amount":2}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := cart.Unmarshal([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestOperationErrorMessages(t *testing.T) {
	tests := []struct {
		err  *cart.OperationError
		want string
	}{
		{&cart.OperationError{Op: cart.OpAdd, Kind: cart.ErrStockExceeded}, "Requested quantity is out of stock"},
		{&cart.OperationError{Op: cart.OpUpdate, Kind: cart.ErrStockExceeded}, "Requested quantity is out of stock"},
		{&cart.OperationError{Op: cart.OpAdd, Kind: cart.ErrCatalogLookupFailed}, "Error adding product"},
		{&cart.OperationError{Op: cart.OpAdd, Kind: cart.ErrCollaboratorUnavailable}, "Error adding product"},
		{&cart.OperationError{Op: cart.OpRemove, Kind: cart.ErrProductNotFound}, "Error removing product"},
		{&cart.OperationError{Op: cart.OpUpdate, Kind: cart.ErrProductNotFound}, "Error changing product quantity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Message())
	}
}

func TestOperationErrorUnwrap(t *testing.T) {
	err := error(&cart.OperationError{Op: cart.OpAdd, Kind: cart.ErrCollaboratorUnavailable, ProductID: 4, Err: errBoom})

	assert.ErrorIs(t, err, cart.ErrCollaboratorUnavailable)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, cart.ErrStockExceeded)
	assert.Contains(t, err.Error(), "add product 4")
}
