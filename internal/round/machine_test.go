package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

func newMachine(t *testing.T, opts Options) *Machine {
	t.Helper()
	m, err := New(Config{MaxRounds: DefaultMaxRounds, Schedule: DefaultSchedule()}, opts)
	require.NoError(t, err)
	return m
}

func TestNew_InvalidMaxRounds(t *testing.T) {
	_, err := New(Config{MaxRounds: 0}, Options{})
	require.Error(t, err)
}

func TestNew_DefaultsSchedule(t *testing.T) {
	m, err := New(Config{MaxRounds: 2}, Options{})
	require.NoError(t, err)
	m.Reset("CAN")
	assert.Equal(t, []domain.LayerKind{domain.LayerRivers}, m.Visible())
}

func TestGuess_CorrectOnFourthGuess(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")

	for i, code := range []string{"MEX", "FRA", "USA"} {
		res, err := m.Guess(code)
		require.NoError(t, err)
		assert.False(t, res.Correct)
		assert.False(t, res.Finished, "guess %d", i+1)
		assert.Equal(t, i+2, res.Round)
	}

	res, err := m.Guess("CAN")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.True(t, res.Finished)

	st := m.State()
	assert.True(t, st.Finished)
	assert.True(t, st.Success)
	assert.Equal(t, []string{"MEX", "FRA", "USA"}, st.Tried)
	assert.Equal(t, []string{"CAN"}, st.Solved)
	assert.Equal(t, 1, st.Correct)
	assert.Equal(t, 1, st.Played)
}

func TestGuess_FourWrongGuessesFail(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")

	var res Result
	var err error
	for _, code := range []string{"MEX", "FRA", "USA", "BRA"} {
		res, err = m.Guess(code)
		require.NoError(t, err)
	}

	assert.True(t, res.Finished)
	assert.False(t, res.Correct)
	st := m.State()
	assert.False(t, st.Success)
	assert.Equal(t, []string{"CAN"}, st.Solved)
	assert.Contains(t, m.Visible(), domain.LayerOutline)
	assert.Equal(t, "Out of guesses. It was CAN. Score 0/1", m.Status())

	_, err = m.Guess("CAN")
	require.ErrorIs(t, err, ErrFinished)
}

func TestGuess_UnresolvedCountsButIsNotTried(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")

	res, err := m.Guess("")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Round)
	assert.Empty(t, m.State().Tried)
}

func TestGuess_RepeatedWrongGuessRecordedOnce(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")

	_, _ = m.Guess("MEX")
	_, _ = m.Guess("MEX")
	st := m.State()
	assert.Equal(t, 3, st.Round)
	assert.Equal(t, []string{"MEX"}, st.Tried)
}

func TestGuess_Errors(t *testing.T) {
	m := newMachine(t, Options{})
	_, err := m.Guess("CAN")
	require.ErrorIs(t, err, ErrNoLocation)

	admin := newMachine(t, Options{Admin: true})
	admin.Reset("CAN")
	_, err = admin.Guess("CAN")
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestVisible_AdditiveAcrossRounds(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")

	want := [][]domain.LayerKind{
		{domain.LayerRivers},
		{domain.LayerRivers, domain.LayerCities},
		{domain.LayerRivers, domain.LayerCities, domain.LayerElevation},
		{domain.LayerOutline, domain.LayerRivers, domain.LayerCities, domain.LayerRoads, domain.LayerElevation},
	}

	prev := map[domain.LayerKind]bool{}
	for round := 1; round <= DefaultMaxRounds; round++ {
		visible := m.Visible()
		assert.Equal(t, want[round-1], visible, "round %d", round)
		for k := range prev {
			assert.Contains(t, visible, k, "round %d hid %s", round, k)
		}
		for _, k := range visible {
			prev[k] = true
		}
		if round < DefaultMaxRounds {
			_, err := m.Guess("XXX")
			require.NoError(t, err)
		}
	}
}

func TestVisible_FinishedRevealsEverything(t *testing.T) {
	m, err := New(Config{MaxRounds: 4, Schedule: Schedule{domain.LayerOutline: 1}}, Options{})
	require.NoError(t, err)
	m.Reset("CAN")
	assert.Equal(t, []domain.LayerKind{domain.LayerOutline}, m.Visible())

	_, err = m.Guess("CAN")
	require.NoError(t, err)
	assert.Equal(t, domain.AllLayerKinds, m.Visible())
}

func TestVisible_OverrideForcesLayers(t *testing.T) {
	m := newMachine(t, Options{Override: []domain.LayerKind{domain.LayerOutline}})
	m.Reset("CAN")
	assert.Equal(t, []domain.LayerKind{domain.LayerOutline, domain.LayerRivers}, m.Visible())
}

func TestVisible_AdminShowsOnlyOverride(t *testing.T) {
	m := newMachine(t, Options{Admin: true, Override: []domain.LayerKind{domain.LayerRoads, domain.LayerCities}})
	m.Reset("CAN")
	assert.Equal(t, []domain.LayerKind{domain.LayerCities, domain.LayerRoads}, m.Visible())
	assert.Equal(t, "Preview: CAN", m.Status())
}

func TestVisible_NoLocation(t *testing.T) {
	m := newMachine(t, Options{})
	assert.Empty(t, m.Visible())
	assert.Equal(t, "Loading...", m.Status())
}

func TestReset_KeepsSolvedAndScore(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")
	_, _ = m.Guess("CAN")

	m.Reset("MEX")
	st := m.State()
	assert.Equal(t, "MEX", st.LocationCode)
	assert.Equal(t, 1, st.Round)
	assert.False(t, st.Finished)
	assert.Empty(t, st.Tried)
	assert.Equal(t, []string{"CAN"}, st.Solved)
	assert.Equal(t, "Round 1/4. Score 1/1", m.Status())

	_, _ = m.Guess("USA")
	assert.Equal(t, "Round 2/4. Tried USA. Score 1/1", m.Status())
}

func TestGuess_CaseInsensitiveTarget(t *testing.T) {
	m := newMachine(t, Options{})
	m.Reset("CAN")
	res, err := m.Guess("can")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "Correct! It was CAN. Score 1/1", m.Status())
}
