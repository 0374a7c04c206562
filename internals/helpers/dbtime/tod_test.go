package dbtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestParseAndString(t *testing.T) {
	tod, err := Parse("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", tod.String())

	tod, err = Parse("23:59:45")
	require.NoError(t, err)
	assert.Equal(t, 45, tod.Second())

	_, err = Parse("25:00")
	assert.Error(t, err)
}

func TestScanVariants(t *testing.T) {
	var tod Tod
	require.NoError(t, tod.Scan("14:15:00"))
	assert.Equal(t, "14:15", tod.String())

	require.NoError(t, tod.Scan([]byte("08:05")))
	assert.Equal(t, "08:05", tod.String())

	require.NoError(t, tod.Scan(time.Date(2026, 3, 1, 16, 45, 0, 0, time.UTC)))
	assert.Equal(t, "16:45", tod.String())

	require.NoError(t, tod.Scan(nil))
	assert.True(t, tod.IsZero())
}

func TestValueFormat(t *testing.T) {
	tod, err := Parse("07:00")
	require.NoError(t, err)
	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "07:00:00", v)
}

func TestOnCombinesDateAndTime(t *testing.T) {
	tod, err := Parse("10:30")
	require.NoError(t, err)

	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local)
	at := tod.On(date)
	assert.Equal(t, 2026, at.Year())
	assert.Equal(t, time.August, at.Month())
	assert.Equal(t, 28, at.Day())
	assert.Equal(t, 10, at.Hour())
	assert.Equal(t, 30, at.Minute())
}

type slotRow struct {
	ID   uint `gorm:"primaryKey"`
	Slot Tod  `gorm:"column:slot"`
}

func (slotRow) TableName() string { return "slot_rows" }

// The stored value must come from Tod's Valuer on both write paths; a
// DataType GORM special-cases would bind the zero time.Time instead.
func TestGormRoundTrip(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&slotRow{}))

	slot, err := Parse("11:45")
	require.NoError(t, err)
	require.NoError(t, db.Create(&slotRow{Slot: slot}).Error)

	var raw string
	require.NoError(t, db.Model(&slotRow{}).Select("slot").Limit(1).Scan(&raw).Error)
	assert.Equal(t, "11:45:00", raw)

	var back slotRow
	require.NoError(t, db.First(&back).Error)
	assert.Equal(t, "11:45", back.Slot.String())

	moved, err := Parse("16:05")
	require.NoError(t, err)
	require.NoError(t, db.Model(&slotRow{}).
		Where("id = ?", back.ID).
		Update("slot", moved).Error)

	require.NoError(t, db.Model(&slotRow{}).Select("slot").Where("id = ?", back.ID).Scan(&raw).Error)
	assert.Equal(t, "16:05:00", raw)
}

func TestJSONRoundTrip(t *testing.T) {
	tod, err := Parse("18:20")
	require.NoError(t, err)

	raw, err := tod.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"18:20"`, string(raw))

	var back Tod
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, tod.String(), back.String())
}
