package domain_test

import (
	"testing"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePin(t *testing.T) {
	assert.NoError(t, domain.ValidatePin("0042"))
	for _, pin := range []string{"", "123", "12345", "12a4", " 1234"} {
		assert.ErrorIs(t, domain.ValidatePin(pin), domain.ErrPinFormat, "pin %q", pin)
	}
}

func TestCredentialWarnings(t *testing.T) {
	assert.Empty(t, domain.CredentialWarnings("ghp_abc", "a1b2c3"))
	assert.Empty(t, domain.CredentialWarnings("github_pat_abc", ""))
	assert.Len(t, domain.CredentialWarnings("token", "a1b2c3"), 1)
	assert.Len(t, domain.CredentialWarnings("token", "not-hex!"), 2)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "ghp_****wxyz", domain.MaskToken("ghp_abcdwxyz"))
	assert.Equal(t, "***", domain.MaskToken("abc"))
}

func TestQRPayload_Validate(t *testing.T) {
	t.Run("Success: Any single field is enough", func(t *testing.T) {
		assert.NoError(t, domain.QRPayload{Token: "ghp_x"}.Validate())
		assert.NoError(t, domain.QRPayload{DocID: "abc"}.Validate())
		assert.NoError(t, domain.QRPayload{Pin: "1234"}.Validate())
	})

	t.Run("Error: Empty payload", func(t *testing.T) {
		show := true
		err := domain.QRPayload{ShowTasks: &show}.Validate()
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Error: Malformed pin", func(t *testing.T) {
		err := domain.QRPayload{Token: "t", Pin: "12"}.Validate()
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestQRDateRange(t *testing.T) {
	rng, err := domain.QRDateRange{Start: "2025-09-15", End: "2026-09-30"}.DateRange(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day("2025-09-15"), rng.Start)

	_, err = domain.QRDateRange{Start: "2026-09-30", End: "2025-09-15"}.DateRange(time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = domain.QRDateRange{Start: "15/09/2025", End: "2026-09-30"}.DateRange(time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestParseClearTarget(t *testing.T) {
	got, err := domain.ParseClearTarget("syllabus")
	require.NoError(t, err)
	assert.Equal(t, domain.ClearSyllabus, got)

	_, err = domain.ParseClearTarget("everything")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDailyCompletion(t *testing.T) {
	d := domain.DailyCompletion{}

	assert.False(t, d.IsDone("2025-09-15", "t1"))
	assert.True(t, d.Toggle("2025-09-15", "t1"))
	assert.True(t, d.IsDone("2025-09-15", "t1"))

	cp := d.Clone()
	assert.False(t, d.Toggle("2025-09-15", "t1"))
	assert.True(t, cp.IsDone("2025-09-15", "t1"))
	assert.Contains(t, d, "2025-09-15")
}

func TestParseRoutineTable(t *testing.T) {
	t.Run("Success: Placeholder becomes template", func(t *testing.T) {
		table, err := domain.ParseRoutineTable([]byte(`{
			"friday": {"morning": [], "selfStudy": [{"id": "q", "name": "Questions ({rotation})", "time": "8:00 PM-9:00 PM"}]}
		}`))
		require.NoError(t, err)

		name := table[domain.DayFriday].SelfStudy[0].Name
		assert.Equal(t, domain.PlaceholderRotationSubject, name.Placeholder)
		assert.Equal(t, "Questions (ICT)", name.Resolve("ICT"))
	})

	t.Run("Error: Unknown key", func(t *testing.T) {
		_, err := domain.ParseRoutineTable([]byte(`{"someday": {}}`))
		assert.ErrorIs(t, err, domain.ErrUnknownDayKind)
	})

	t.Run("Error: Bad JSON", func(t *testing.T) {
		_, err := domain.ParseRoutineTable([]byte(`{`))
		assert.ErrorIs(t, err, domain.ErrDecode)
	})

	t.Run("Error: Duplicate task id", func(t *testing.T) {
		_, err := domain.ParseRoutineTable([]byte(`{"friday": {"morning": [
			{"id": "a", "name": "A", "time": "9:00 AM-10:00 AM"},
			{"id": "a", "name": "B", "time": "10:00 AM-11:00 AM"}
		]}}`))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Error: Bad time", func(t *testing.T) {
		_, err := domain.ParseRoutineTable([]byte(`{"friday": {"morning": [{"id": "a", "name": "A", "time": "noon"}]}}`))
		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	})
}
