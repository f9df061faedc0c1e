package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "^data-ssn"})
	require.NoError(t, err)
	secure := mw(underlying)

	ctx := context.Background()
	model := map[string]any{
		"tagName": "form",
		"children": []any{
			map[string]any{"tagName": "input", "attributes": map[string]any{"name": "user", "value": "jdoe"}},
			map[string]any{"tagName": "input", "attributes": map[string]any{"password": "secret123"}},
			map[string]any{"tagName": "span", "attributes": map[string]any{"data-ssn": "999-99-9999"}},
		},
	}
	require.NoError(t, secure.Save(ctx, "w1", domain.Snapshot{Model: model, Revision: 1}))

	live := model["children"].([]any)[1].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "secret123", live["password"], "the live model is not modified")

	stored, err := underlying.Load(ctx, "w1")
	require.NoError(t, err)
	kids := stored.Model.(map[string]any)["children"].([]any)
	attrs := func(i int) map[string]any { return kids[i].(map[string]any)["attributes"].(map[string]any) }
	assert.Equal(t, "jdoe", attrs(0)["value"])
	assert.Equal(t, middleware.Mask, attrs(1)["password"])
	assert.Equal(t, middleware.Mask, attrs(2)["data-ssn"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_EncryptsMaskedModel(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"token"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	var store ports.SnapshotStore = middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "w1", domain.Snapshot{Model: map[string]any{"token": "abc"}, Revision: 1}))

	loaded, err := store.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"token": middleware.Mask}, loaded.Model)
}
