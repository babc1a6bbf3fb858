package variant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/variant"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name string
		info string
		want variant.Identity
	}{
		{
			name: "Quectel CC660D",
			info: "Quectel\r\nCC660D-LS\r\nRevision: CC660DLSR01A03",
			want: variant.Identity{Manufacturer: variant.Quectel, Model: variant.CC660D},
		},
		{
			name: "Quectel BG95",
			info: "QUECTEL BG95-M3",
			want: variant.Identity{Manufacturer: variant.Quectel, Model: variant.BG95, Chipset: variant.MDM9205},
		},
		{
			name: "Quectel other",
			info: "Quectel BG77",
			want: variant.Identity{Manufacturer: variant.Quectel},
		},
		{
			name: "Murata Type1SC",
			info: "Murata Manufacturing Co., Ltd.\nLBAD0XX1SC-DM",
			want: variant.Identity{Manufacturer: variant.Murata, Model: variant.TYPE1SC, Chipset: variant.ALT1250},
		},
		{
			name: "Sierra HL7810",
			info: "HL7810 5.5.16.0",
			want: variant.Identity{Manufacturer: variant.Sierra, Model: variant.HL781X, Chipset: variant.ALT1250},
		},
		{
			name: "Sierra token is case sensitive",
			info: "hl7810",
			want: variant.Identity{},
		},
		{
			name: "Unknown",
			info: "u-blox SARA-R5",
			want: variant.Identity{},
		},
		{
			name: "Empty",
			info: "",
			want: variant.Identity{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := variant.ResolveIdentity(tt.info)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Model != variant.ModelUnknown, got.Known())
		})
	}
}

func TestIdentityText(t *testing.T) {
	var m variant.Model
	require.NoError(t, m.UnmarshalText([]byte(" TYPE1SC ")))
	assert.Equal(t, variant.TYPE1SC, m)
	assert.Error(t, m.UnmarshalText([]byte("nrf9151")))

	var c variant.Chipset
	require.NoError(t, c.UnmarshalText([]byte("alt1250")))
	assert.Equal(t, "alt1250", c.String())

	var mf variant.Manufacturer
	require.NoError(t, mf.UnmarshalText([]byte("Quectel")))
	assert.Equal(t, variant.Quectel, mf)

	id := variant.Identity{Manufacturer: variant.Murata, Model: variant.TYPE1SC, Chipset: variant.ALT1250}
	assert.Equal(t, "murata/type1sc/alt1250", id.String())
	assert.Equal(t, "unknown", variant.Model(42).String())
}

func TestRegistry(t *testing.T) {
	reg := variant.NewRegistry()

	first := variant.Variant{Name: "altair"}
	second := variant.Variant{Name: "type1sc-custom", Sequence: func() initseq.Sequence {
		return initseq.Sequence{{Command: "AT", Expect: at.ResultOK}}
	}}

	require.NoError(t, reg.Register(variant.MatchChipset(variant.ALT1250), first))
	require.NoError(t, reg.Register(variant.MatchModel(variant.TYPE1SC), second))

	t.Run("later registration wins", func(t *testing.T) {
		v, ok := reg.Lookup(variant.Identity{Model: variant.TYPE1SC, Chipset: variant.ALT1250})
		require.True(t, ok)
		assert.Equal(t, "type1sc-custom", v.Name)
		assert.Len(t, v.InitSequence(), 1)
	})

	t.Run("falls through to broader match", func(t *testing.T) {
		v, ok := reg.Lookup(variant.Identity{Model: variant.HL781X, Chipset: variant.ALT1250})
		require.True(t, ok)
		assert.Equal(t, "altair", v.Name)
		assert.Equal(t, initseq.Default(), v.InitSequence(), "nil factory selects the default sequence")
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := reg.Lookup(variant.Identity{Manufacturer: variant.Quectel, Model: variant.BG95})
		assert.False(t, ok)

		v, err := reg.Resolve(variant.Identity{Manufacturer: variant.Quectel})
		assert.ErrorIs(t, err, variant.ErrUnsupportedVariant)
		assert.Equal(t, variant.DefaultName, v.Name)
	})

	t.Run("by name", func(t *testing.T) {
		v, ok := reg.Get("altair")
		require.True(t, ok)
		assert.Equal(t, first.Name, v.Name)
		assert.Equal(t, []string{"altair", "type1sc-custom"}, reg.Names())
	})

	t.Run("invalid", func(t *testing.T) {
		assert.ErrorIs(t, reg.Register(nil, variant.Variant{Name: "x"}), variant.ErrInvalidVariant)
		assert.ErrorIs(t, reg.Register(variant.MatchManufacturer(variant.Quectel), variant.Variant{}), variant.ErrInvalidVariant)
	})
}

func TestResolveNilRegistry(t *testing.T) {
	var reg *variant.Registry
	v, err := reg.Resolve(variant.Identity{})
	assert.ErrorIs(t, err, variant.ErrUnsupportedVariant)
	assert.Equal(t, variant.DefaultName, v.Name)
}
