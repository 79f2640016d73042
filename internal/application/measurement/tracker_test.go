package measurement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/internal/application/measurement"
	"github.com/jhoicas/Flota-api/internal/domain"
	"github.com/jhoicas/Flota-api/internal/domain/entity"
	"github.com/jhoicas/Flota-api/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTracker(allowDecrease bool) *measurement.Tracker {
	store := memory.New()
	store.SeedVehicle(entity.Vehicle{ID: "v-1", Plate: "ABC123", MeasurementKind: entity.MeasureDistance, CurrentReading: dec("1000")})
	return measurement.NewTracker(store, store.Measurements(), store.Vehicles(), allowDecrease, nil, nil)
}

func TestRecord_SinLecturaPropiaUsaRegistro(t *testing.T) {
	tr := newTracker(false)
	m, err := tr.Current(context.Background(), "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(m.Reading))
	assert.Equal(t, entity.MeasureDistance, m.Kind)
}

func TestRecord_ActualizaYRegistraHistorial(t *testing.T) {
	tr := newTracker(false)
	ctx := context.Background()

	m, err := tr.Record(ctx, "v-1", dec("1250.5"), "e-mec", "salida a ruta", false)
	require.NoError(t, err)
	assert.True(t, dec("1250.5").Equal(m.Reading))

	hist, err := tr.History(ctx, "v-1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, dec("1000").Equal(hist[0].Previous))
	assert.Equal(t, entity.SourceManual, hist[0].SourceType)
	assert.False(t, hist[0].Anomaly)
}

func TestRecord_LecturaIgualNoGeneraHistorial(t *testing.T) {
	tr := newTracker(false)
	ctx := context.Background()
	_, err := tr.Record(ctx, "v-1", dec("1000"), "e-mec", "", false)
	require.NoError(t, err)

	hist, err := tr.History(ctx, "v-1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestRecord_LecturaMenor(t *testing.T) {
	cases := []struct {
		name          string
		policy        bool
		allowDecrease bool
		wantErr       bool
	}{
		{"política cerrada", false, true, true},
		{"sin permiso del caller", true, false, true},
		{"permitida como anomalía", true, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTracker(tc.policy)
			ctx := context.Background()

			m, err := tr.Record(ctx, "v-1", dec("12"), "e-admin", "cambio de odómetro", tc.allowDecrease)
			hist, herr := tr.History(ctx, "v-1", 0)
			require.NoError(t, herr)
			if tc.wantErr {
				assert.True(t, errors.Is(err, domain.ErrValidation))
				assert.Empty(t, hist)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec("12").Equal(m.Reading))
			require.Len(t, hist, 1)
			assert.True(t, hist[0].Anomaly)
		})
	}
}

func TestRecord_Validaciones(t *testing.T) {
	tr := newTracker(false)
	ctx := context.Background()

	_, err := tr.Record(ctx, "v-1", dec("1500"), "", "", false)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = tr.Record(ctx, "v-1", dec("-5"), "e-mec", "", false)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = tr.Record(ctx, "v-x", dec("1500"), "e-mec", "", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = tr.Record(ctx, "v-1", dec("1500.125"), "e-mec", "", false)
	assert.True(t, errors.Is(err, domain.ErrValidation), "más de dos decimales")
	m, err := tr.Current(ctx, "v-1")
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(m.Reading))

	_, err = tr.Record(ctx, "v-1", dec("1500.50"), "e-mec", "", false)
	require.NoError(t, err)
}

func TestHistory_MasRecientePrimeroConLimite(t *testing.T) {
	tr := newTracker(false)
	ctx := context.Background()
	for _, r := range []string{"1100", "1200", "1300"} {
		_, err := tr.Record(ctx, "v-1", dec(r), "e-mec", "", false)
		require.NoError(t, err)
	}

	hist, err := tr.History(ctx, "v-1", 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.True(t, dec("1300").Equal(hist[0].New))
	assert.True(t, dec("1200").Equal(hist[1].New))
}
