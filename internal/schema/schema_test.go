package schema

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDiscriminant(t *testing.T) {
	t.Run("uses the first 8 bytes of the namespaced hash", func(t *testing.T) {
		sum := sha256.Sum256([]byte("event:OrderRecord"))

		var want Discriminant
		copy(want[:], sum[:DiscriminantSize])

		assert.Equal(t, want, DeriveDiscriminant("OrderRecord"))
	})

	t.Run("different names yield different discriminants", func(t *testing.T) {
		assert.NotEqual(t, DeriveDiscriminant("Fill"), DeriveDiscriminant("Liquidation"))
	})
}

func TestLoad(t *testing.T) {
	t.Run("builds a registry from a full document", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"version": "2.1.0",
			"events": [
				{
					"name": "Fill",
					"fields": [
						{"name": "maker", "type": "publicKey"},
						{"name": "price", "type": "u64"},
						{"name": "size", "type": "u64"},
						{"name": "side", "type": {"defined": "Side"}},
						{"name": "referrer", "type": {"option": "publicKey"}}
					]
				},
				{
					"name": "Liquidation",
					"fields": [
						{"name": "margin", "type": "i128"},
						{"name": "balances", "type": {"vec": "u64"}}
					]
				}
			],
			"types": [
				{
					"name": "Side",
					"type": {
						"kind": "enum",
						"variants": [
							{"name": "Buy"},
							{"name": "Sell"}
						]
					}
				}
			]
		}`

		registry, err := Load([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 2, registry.Len())

		fill, ok := registry.Lookup(DeriveDiscriminant("Fill"))
		require.True(t, ok)
		assert.Equal(t, "Fill", fill.Name)
		require.Len(t, fill.Fields, 5)
		assert.Equal(t, KindPublicKey, fill.Fields[0].Type.Kind)
		assert.Equal(t, KindDefined, fill.Fields[3].Type.Kind)
		assert.Equal(t, KindOption, fill.Fields[4].Type.Kind)
		assert.Equal(t, KindPublicKey, fill.Fields[4].Type.Elem.Kind)

		side, ok := registry.DefinedType("Side")
		require.True(t, ok)
		assert.True(t, side.IsEnum())
		require.Len(t, side.Variants, 2)
		assert.Equal(t, "Buy", side.Variants[0].Name)
	})

	t.Run("honors explicit discriminator overrides", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{
					"name": "Fill",
					"discriminator": [1, 2, 3, 4, 5, 6, 7, 8],
					"fields": [{"name": "price", "type": "u64"}]
				}
			]
		}`

		registry, err := Load([]byte(doc))
		require.NoError(t, err)

		want := Discriminant{1, 2, 3, 4, 5, 6, 7, 8}
		fill, ok := registry.Lookup(want)
		require.True(t, ok)
		assert.Equal(t, "Fill", fill.Name)

		_, ok = registry.Lookup(DeriveDiscriminant("Fill"))
		assert.False(t, ok, "the derived discriminant must not be registered when overridden")
	})

	t.Run("rejects a short discriminator override", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "discriminator": [1, 2, 3], "fields": []}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("rejects duplicate discriminants", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "A", "discriminator": [9, 9, 9, 9, 9, 9, 9, 9], "fields": []},
				{"name": "B", "discriminator": [9, 9, 9, 9, 9, 9, 9, 9], "fields": []}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrDuplicateDiscriminant)
	})

	t.Run("rejects unresolved defined references", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{
					"name": "Fill",
					"fields": [{"name": "side", "type": {"defined": "Missing"}}]
				}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrUnresolvedType)
	})

	t.Run("rejects unresolved references nested in composites", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{
					"name": "Fill",
					"fields": [{"name": "sides", "type": {"vec": {"defined": "Missing"}}}]
				}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrUnresolvedType)
	})

	t.Run("rejects unknown primitives", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "fields": [{"name": "x", "type": "u256"}]}
			]
		}`

		_, err := Load([]byte(doc))
		require.Error(t, err)
	})

	t.Run("rejects fields without a type", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "fields": [{"name": "price"}]}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("rejects untyped fields inside defined types", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "fields": [{"name": "point", "type": {"defined": "Point"}}]}
			],
			"types": [
				{
					"name": "Point",
					"type": {
						"kind": "struct",
						"fields": [{"name": "x", "type": "i32"}, {"name": "y"}]
					}
				}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("rejects duplicate type declarations", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "fields": [{"name": "side", "type": {"defined": "Side"}}]}
			],
			"types": [
				{"name": "Side", "type": {"kind": "enum", "variants": [{"name": "Buy"}]}},
				{"name": "Side", "type": {"kind": "enum", "variants": [{"name": "Sell"}]}}
			]
		}`

		_, err := Load([]byte(doc))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("rejects documents without events", func(t *testing.T) {
		_, err := Load([]byte(`{"name": "perp", "events": []}`))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := Load([]byte(`{not json`))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("parses array types", func(t *testing.T) {
		doc := `{
			"name": "perp",
			"events": [
				{"name": "Fill", "fields": [{"name": "padding", "type": {"array": ["u8", 32]}}]}
			]
		}`

		registry, err := Load([]byte(doc))
		require.NoError(t, err)

		fill, ok := registry.Lookup(DeriveDiscriminant("Fill"))
		require.True(t, ok)
		assert.Equal(t, KindArray, fill.Fields[0].Type.Kind)
		assert.Equal(t, 32, fill.Fields[0].Type.Len)
		assert.Equal(t, KindU8, fill.Fields[0].Type.Elem.Kind)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file reports malformed document", func(t *testing.T) {
		_, err := LoadFile("/nonexistent/schema.json")
		require.ErrorIs(t, err, ErrMalformedDocument)
	})
}
