package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/guildhall/core"
)

func ptr[T any](v T) *T { return &v }

func TestItemService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signUpAndIn(t, "a@x.com", "abc123")

	created, err := env.items.Create(ctx, p, core.ItemInput{Name: "Sword", HP: 0, Power: 12, Price: 300})
	require.NoError(t, err)

	got, err := env.items.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sword", got.Name)
	assert.Equal(t, 12, got.Power)
	assert.Equal(t, 300, got.Price)
	assert.Equal(t, p.AccountID, got.AccountID)

	_, err = env.items.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, core.ErrItemNotFound)
}

// Requirement: updates change only the supplied fields and only for the owner.
func TestItemService_Update(t *testing.T) {
	tests := []struct {
		name    string
		asOther bool
		update  core.ItemUpdate
		want    core.Item
		wantErr error
	}{
		{
			name:   "price only",
			update: core.ItemUpdate{Price: ptr(999)},
			want:   core.Item{Name: "Sword", HP: 5, Power: 12, Price: 999},
		},
		{
			name:   "name and power",
			update: core.ItemUpdate{Name: ptr("Axe"), Power: ptr(20)},
			want:   core.Item{Name: "Axe", HP: 5, Power: 20, Price: 300},
		},
		{
			name:    "not the owner",
			asOther: true,
			update:  core.ItemUpdate{Price: ptr(1)},
			wantErr: core.ErrNotFound,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t)
			ctx := context.Background()
			alice := env.signUpAndIn(t, "a@x.com", "abc123")
			bob := env.signUpAndIn(t, "b@x.com", "abc123")
			item, err := env.items.Create(ctx, alice, core.ItemInput{Name: "Sword", HP: 5, Power: 12, Price: 300})
			require.NoError(t, err)
			caller := alice
			if test.asOther {
				caller = bob
			}

			// Act
			got, err := env.items.Update(ctx, caller, item.ID, test.update)

			// Assert
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				unchanged, getErr := env.items.Get(ctx, item.ID)
				require.NoError(t, getErr)
				assert.Equal(t, 300, unchanged.Price)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want.Name, got.Name)
			assert.Equal(t, test.want.HP, got.HP)
			assert.Equal(t, test.want.Power, got.Power)
			assert.Equal(t, test.want.Price, got.Price)
		})
	}
}

func TestItemService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signUpAndIn(t, "a@x.com", "abc123")
	item, err := env.items.Create(ctx, p, core.ItemInput{Name: "Sword", HP: 0, Power: 1, Price: 1})
	require.NoError(t, err)

	err = env.items.Delete(ctx, p, item.ID, "bad999")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, err = env.items.Get(ctx, item.ID)
	require.NoError(t, err)

	require.NoError(t, env.items.Delete(ctx, p, item.ID, "abc123"))
	_, err = env.items.Get(ctx, item.ID)
	assert.ErrorIs(t, err, core.ErrItemNotFound)

	err = env.items.Delete(ctx, p, item.ID, "abc123")
	assert.ErrorIs(t, err, core.ErrItemNotFound)
}
