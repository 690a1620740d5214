package dimensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	t.Run("get by key", func(t *testing.T) {
		def := reg.Get("office")
		require.NotNil(t, def)
		assert.Equal(t, "OfficeName", def.Column)
		assert.Equal(t, PickValue, def.PickType)
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.Nil(t, reg.Get("galaxy"))
	})

	t.Run("key from column is case-insensitive", func(t *testing.T) {
		assert.Equal(t, "office", reg.KeyFromColumn("officename"))
		assert.Equal(t, "person", reg.KeyFromColumn("submitterName"))
		assert.Equal(t, "", reg.KeyFromColumn("noSuchColumn"))
	})

	t.Run("person pseudo-dimension", func(t *testing.T) {
		person := reg.Person()
		require.NotNil(t, person)
		assert.Equal(t, "submitterName", person.Column)
		assert.Equal(t, "paralegalName", person.FallbackColumn)
	})

	t.Run("list preserves catalog order", func(t *testing.T) {
		defs := reg.List()
		require.NotEmpty(t, defs)
		assert.Equal(t, "office", defs[0].Key)
	})

	t.Run("localized labels", func(t *testing.T) {
		def := reg.Get("office")
		assert.Equal(t, "office", def.Label("en"))
		assert.Equal(t, "oficina", def.Label("es-MX"))
		assert.Equal(t, "office", def.Label("fr"))
	})
}
