package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TableTests(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "plain date", input: "2024-03-01", want: New(2024, time.March, 1)},
		{name: "legacy text with time", input: "2024-03-01 00:00:00.000Z", want: New(2024, time.March, 1)},
		{name: "rfc3339", input: "2024-01-15T23:59:59+03:00", want: New(2024, time.January, 15)},
		{name: "surrounding spaces", input: "  2024-02-29 ", want: New(2024, time.February, 29)},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong order", input: "01-03-2024", wantErr: true},
		{name: "impossible day", input: "2023-02-29", wantErr: true},
		{name: "garbage suffix", input: "2024-03-01x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Ordering(t *testing.T) {
	a := MustParse("2024-01-10")
	b := MustParse("2024-01-15")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.Equal(t, 5, a.DaysSince(b))
	assert.Equal(t, -5, b.DaysSince(a))
	assert.Equal(t, b, a.AddDays(5))
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, time.February)
	assert.Equal(t, "2024-02-01", first.String())
	assert.Equal(t, "2024-02-29", last.String())

	first, last = MonthRange(2023, time.December)
	assert.Equal(t, "2023-12-01", first.String())
	assert.Equal(t, "2023-12-31", last.String())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Date     Date  `json:"date"`
		LastUse  *Date `json:"last_use_date"`
		Optional *Date `json:"optional,omitempty"`
	}

	d := MustParse("2024-03-01")
	out, err := json.Marshal(payload{Date: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-01","last_use_date":null}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-01 12:00:00.000Z","last_use_date":"2024-02-01"}`), &in))
	assert.Equal(t, d, in.Date)
	require.NotNil(t, in.LastUse)
	assert.Equal(t, "2024-02-01", in.LastUse.String())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"yesterday"}`), &in))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-15", d.String())

	require.NoError(t, d.Scan([]byte("2024-01-16 00:00:00.000Z")))
	assert.Equal(t, "2024-01-16", d.String())

	assert.Error(t, d.Scan(42))

	var n NullDate
	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)
	assert.Nil(t, n.Ptr())

	require.NoError(t, n.Scan(""))
	assert.False(t, n.Valid)

	require.NoError(t, n.Scan("2024-01-01"))
	require.True(t, n.Valid)
	assert.Equal(t, "2024-01-01", n.Ptr().String())

	v, err := FromPtr(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = FromPtr(n.Ptr()).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", v)
}
