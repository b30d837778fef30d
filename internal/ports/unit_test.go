package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/framerank/internal/domain"
)

// mockUnit is a test implementation of the Unit interface.
type mockUnit struct {
	name        string
	executeFunc func(context.Context, domain.State) (domain.State, error)
	validateErr error
}

func (m *mockUnit) Name() string { return m.name }

func (m *mockUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, state)
	}
	return state, nil
}

func (m *mockUnit) Validate() error { return m.validateErr }

func TestUnit_Interface(t *testing.T) {
	var _ Unit = (*mockUnit)(nil)

	unit := &mockUnit{
		name: "tag-run",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			return domain.With(state, domain.KeyConfigName, "tagged"), nil
		},
	}

	assert.Equal(t, "tag-run", unit.Name())
	require.NoError(t, unit.Validate())

	in := domain.NewState()
	out, err := unit.Execute(context.Background(), in)
	require.NoError(t, err)

	got, ok := domain.Get(out, domain.KeyConfigName)
	assert.True(t, ok)
	assert.Equal(t, "tagged", got)
	assert.False(t, domain.Has(in, domain.KeyConfigName), "input state must be untouched")
}

func TestUnit_ValidationAndCancellation(t *testing.T) {
	invalid := &mockUnit{name: "broken", validateErr: errors.New("missing criteria")}
	assert.EqualError(t, invalid.Validate(), "missing criteria")

	respectful := &mockUnit{
		name: "respectful",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			if err := ctx.Err(); err != nil {
				return domain.State{}, err
			}
			return state, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := respectful.Execute(ctx, domain.NewState())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnitFactory(t *testing.T) {
	var factory UnitFactory = func(id string, params map[string]any) (Unit, error) {
		if id == "" {
			return nil, errors.New("id required")
		}
		return &mockUnit{name: id}, nil
	}

	u, err := factory("rank", nil)
	require.NoError(t, err)
	assert.Equal(t, "rank", u.Name())

	_, err = factory("", nil)
	assert.Error(t, err)
}
