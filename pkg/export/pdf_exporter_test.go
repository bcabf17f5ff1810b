package export

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsShortValues(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 28))
	assert.Equal(t, "", truncate("", 28))
}

func TestTruncateCutsOnRuneBoundaries(t *testing.T) {
	long := "小明在操场上观察到了一只非常罕见的候鸟正在筑巢准备过冬休息了"
	require.Greater(t, len([]rune(long)), 28)

	cut := truncate(long, 28)
	assert.True(t, utf8.ValidString(cut), "truncation must not split a rune")
	assert.Equal(t, 28, len([]rune(cut)))
	assert.Equal(t, "...", cut[len(cut)-3:])

	// byte length alone never triggers truncation
	cjk := "是是是是是是是是是是" // 10 runes, 30 bytes
	assert.Equal(t, cjk, truncate(cjk, 28))
}
