package browser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/query"
)

func testCatalog() *catalog.Catalog {
	var cards []catalog.CardView
	for i := 1; i <= 25; i++ {
		set := "Base"
		if i%2 == 0 {
			set = "Jungle"
		}
		cards = append(cards, catalog.CardView{
			ID:         fmt.Sprint(i),
			Name:       fmt.Sprintf("Card %02d", i),
			Set:        set,
			ImageURL:   "x.png",
			TypeValues: []string{"Fire"},
		})
	}
	return &catalog.Catalog{Groups: []catalog.GameGroup{
		{Slug: "pokemon", Label: "Pokemon", TypeMatchMode: catalog.MatchExact, Cards: cards},
		{Slug: "one-piece", Label: "One Piece", TypeMatchMode: catalog.MatchContains, Cards: cards[:3]},
	}}
}

func TestController_StartsWithoutGame(t *testing.T) {
	var rendered []View
	c := New(testCatalog(), Options{Renderer: RendererFunc(func(v View) { rendered = append(rendered, v) })})

	require.Len(t, rendered, 1)
	v := c.View()
	assert.Equal(t, NoGameSelected, v.State)
	assert.Empty(t, v.Result.Items)
	assert.Equal(t, 0, v.Result.TotalPages)
	assert.Nil(t, v.Group)
	assert.Equal(t, "Select a game to start browsing.", v.Status)
	assert.Len(t, v.Games, 2)
	assert.Equal(t, 25, v.Games[0].Cards)
}

func TestController_Transitions(t *testing.T) {
	c := New(testCatalog(), Options{PageSize: 10})

	c.SelectGame("pokemon")
	assert.Equal(t, Browsing, c.State())
	assert.Equal(t, 3, c.View().Result.TotalPages)
	assert.Equal(t, []string{"Base", "Jungle"}, c.View().SetOptions)
	assert.Equal(t, "Page 1 of 3", c.View().Status)

	c.NextPage()
	c.NextPage()
	c.NextPage()
	assert.Equal(t, 3, c.View().Query.Page, "next page stops at the last page")
	c.PrevPage()
	assert.Equal(t, 2, c.View().Query.Page)

	c.SelectSet("Jungle")
	assert.Equal(t, 1, c.View().Query.Page)
	assert.Equal(t, 12, c.View().Result.Total)

	c.GoToPage(2)
	c.SelectType("Fire")
	assert.Equal(t, 1, c.View().Query.Page)

	c.GoToPage(2)
	c.Search("card 1")
	assert.Equal(t, 1, c.View().Query.Page)

	c.GoToPage(2)
	c.SetPageSize(5)
	assert.Equal(t, 1, c.View().Query.Page)
	assert.Equal(t, 5, c.View().Query.PageSize)

	c.SelectGame("one-piece")
	q := c.View().Query
	assert.Empty(t, q.SetName)
	assert.Empty(t, q.TypeValue)
	assert.Equal(t, "card 1", q.SearchText, "search text survives a game change")

	c.SelectGame("")
	assert.Equal(t, NoGameSelected, c.State())
	assert.Empty(t, c.View().Result.Items)
}

func TestController_NoMatchesStatus(t *testing.T) {
	c := New(testCatalog(), Options{Translator: i18n.New("fr")})
	c.SelectGame("pokemon")
	assert.Equal(t, "Page 1 sur 2", c.View().Status)
	c.Search("zzz")
	assert.Equal(t, "Aucune carte ne correspond à vos filtres.", c.View().Status)
}

func TestController_EmptyGameAllMode(t *testing.T) {
	c := New(testCatalog(), Options{Engine: query.Engine{Mode: query.EmptyGameAll}})
	assert.Equal(t, NoGameSelected, c.State())
	assert.Equal(t, 28, c.View().Result.Total)
}
