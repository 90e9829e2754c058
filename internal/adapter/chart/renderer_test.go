package chart

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

func testPanels() []domain.Panel {
	var obs []domain.Observation
	start := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 84; i++ {
		d := start.AddDate(0, i, 0)
		obs = append(obs, domain.Observation{Date: d, Year: d.Year(), Month: d.Month(), NumberServed: int64(150 + i%12*5)})
	}
	return domain.BuildPanels(domain.SliceByEras(obs, domain.DefaultEras))
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"pcod.jpg", FormatJPEG},
		{"out/PCOD.JPEG", FormatJPEG},
		{"chart.png", FormatPNG},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFor("chart.svg")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, FormatPNG, testPanels()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Greater(t, b.Dx(), b.Dy(), "figure should be wider than tall")
	assert.InDelta(t, 3.0, float64(b.Dx())/float64(b.Dy()), 0.01)
}

func TestRenderFile_JPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcod.jpg")
	require.NoError(t, NewRenderer().RenderFile(path, testPanels()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = jpeg.Decode(f)
	require.NoError(t, err)
}

func TestRenderFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcod.gif")
	err := NewRenderer().RenderFile(path, testPanels())
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created")
}

func TestRender_EmptyPanelAndNoTrend(t *testing.T) {
	panels := testPanels()
	panels[1] = domain.Panel{Era: panels[1].Era}
	panels[2].Trend = nil

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, FormatPNG, panels))
	assert.NotZero(t, buf.Len())
}

func TestRender_NoPanels(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, NewRenderer().Render(&buf, FormatPNG, nil))
}

func TestSharedRange(t *testing.T) {
	lo, hi := sharedRange(testPanels())
	assert.Less(t, lo, 150.0)
	assert.Greater(t, hi, 205.0)

	lo, hi = sharedRange(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}
