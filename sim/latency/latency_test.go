package latency

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModels_ReproducibleGivenRng(t *testing.T) {
	uniform, err := NewUniform(5*time.Second, 15*time.Second)
	require.NoError(t, err)
	logNormal, err := NewLogNormal(time.Second)
	require.NoError(t, err)
	zipf, err := NewZipf(1.5, 10, time.Minute)
	require.NoError(t, err)

	for name, model := range map[string]Model{
		"none":       None,
		"uniform":    uniform,
		"log normal": logNormal,
		"zipf":       zipf,
	} {
		t.Run(name, func(t *testing.T) {
			for seed := int64(0); seed < 20; seed++ {
				one := model.Sample(rand.New(rand.NewSource(seed)))
				other := model.Sample(rand.New(rand.NewSource(seed)))
				require.Equal(t, one, other)
				require.GreaterOrEqual(t, one, time.Duration(0))
			}
		})
	}
}

func TestUniform(t *testing.T) {
	subject, err := NewUniform(5*time.Second, 15*time.Second)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		sample := subject.Sample(rng)
		require.GreaterOrEqual(t, sample, 5*time.Second)
		require.Less(t, sample, 15*time.Second)
	}

	fixed, err := NewUniform(time.Second, time.Second)
	require.NoError(t, err)
	require.Equal(t, time.Second, fixed.Sample(rng))

	_, err = NewUniform(-time.Second, time.Second)
	require.Error(t, err)
	_, err = NewUniform(2*time.Second, time.Second)
	require.Error(t, err)
}

func TestZipf_RejectsOutOfBandParameters(t *testing.T) {
	_, err := NewZipf(0.5, 1, time.Second)
	require.Error(t, err)
	_, err = NewZipf(2, 1, -time.Second)
	require.Error(t, err)
}

func TestZipf_BoundedByMax(t *testing.T) {
	subject, err := NewZipf(1.1, 1, time.Second)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		require.LessOrEqual(t, subject.Sample(rng), time.Second)
	}
}

func TestLogNormal_Mean(t *testing.T) {
	subject, err := NewLogNormal(time.Second)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1413))
	const samples = 200_000
	var total time.Duration
	for i := 0; i < samples; i++ {
		total += subject.Sample(rng)
	}
	require.InEpsilon(t, float64(time.Second), float64(total/samples), 0.03)
}
