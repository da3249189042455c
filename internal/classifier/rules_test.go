package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/gonet/internal/fetcher"
	"github.com/voyagen/gonet/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		category string
		want     models.MediaType
	}{
		{"Movies", models.MediaTypeMovie},
		{"افلام عربية", models.MediaTypeMovie},
		{"VOD | English", models.MediaTypeMovie},
		{"TV Series", models.MediaTypeSeries},
		{"مسلسلات رمضان", models.MediaTypeSeries},
		{"Radio FM", models.MediaTypeRadio},
		{"اذاعة القرآن", models.MediaTypeRadio},
		{"Sports", models.MediaTypeLive},
		{"🇵🇸 Palestine", models.MediaTypeLive},
		{"", models.MediaTypeLive},
		{models.FallbackCategory, models.MediaTypeLive},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.category), c.category)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	assert.Equal(t, models.MediaTypeMovie, Classify("Movies & Series"))
	assert.Equal(t, models.MediaTypeMovie, Classify("Series VOD"))
	assert.Equal(t, models.MediaTypeMovie, Classify("radio movie"))
	assert.Equal(t, models.MediaTypeSeries, Classify("Radio Series"))
}

func TestRules_Order(t *testing.T) {
	require.Len(t, Rules, 3)
	assert.Equal(t, models.MediaTypeMovie, Rules[0].Type)
	assert.Equal(t, models.MediaTypeSeries, Rules[1].Type)
	assert.Equal(t, models.MediaTypeRadio, Rules[2].Type)
	for _, r := range Rules {
		for _, kw := range r.Keywords {
			assert.Equal(t, Classify(kw), r.Type, "keyword %q must classify as its own rule", kw)
		}
	}
}

func TestApply(t *testing.T) {
	items := Apply([]fetcher.RawEntry{
		{Title: "Breaking Bad (2008)", Category: "Series", Year: "2008", URL: "http://x/1.ts"},
		{Title: "Al Jazeera", Category: "News", Year: models.DefaultYear, URL: "http://x/2.ts", Thumbnail: "http://logo"},
	})
	require.Len(t, items, 2)

	assert.Equal(t, models.MediaTypeSeries, items[0].Type)
	assert.Equal(t, "Breaking Bad (2008)", items[0].Title)
	assert.Equal(t, "2008", items[0].Year)
	assert.Equal(t, models.MediaTypeLive, items[1].Type)
	assert.Equal(t, "http://logo", items[1].Thumbnail)

	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.Contains(t, items[0].ID, models.MediaIDPrefix)
}

func TestApply_Empty(t *testing.T) {
	items := Apply(nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
