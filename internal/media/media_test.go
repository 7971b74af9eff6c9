package media

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("0:00", FormatTimestamp(0))
	assert.Equal("0:05", FormatTimestamp(5.7))
	assert.Equal("1:30", FormatTimestamp(90))
	assert.Equal("10:00", FormatTimestamp(600))
	assert.Equal("59:59", FormatTimestamp(3599))
	assert.Equal("1:00:00", FormatTimestamp(3600))
	assert.Equal("2:05:09", FormatTimestamp(2*3600+5*60+9))
}

func TestParseMode(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal(ModeFast, ParseMode("fast"))
	assert.Equal(ModeQuick, ParseMode("quick"))
	assert.Equal(ModeShort, ParseMode("short"))
	assert.Equal(ModeLong, ParseMode("long"))

	// Anything unrecognized falls back to the most thorough tier.
	assert.Equal(ModeLong, ParseMode(""))
	assert.Equal(ModeLong, ParseMode("FAST"))
	assert.Equal(ModeLong, ParseMode("detailed"))
}
