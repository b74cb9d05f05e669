package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/chatthing-web/internal/content"
	"finitefield.org/chatthing-web/internal/uistate"
)

func render(t *testing.T, r *Renderer, name Fragment, data PageData) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	if name == "" {
		require.NoError(t, r.Page(data).Render(context.Background(), &buf))
	} else {
		require.NoError(t, r.Fragment(name, data).Render(context.Background(), &buf))
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func newData(state *uistate.Page) PageData {
	return PageData{
		Catalog:   content.Default(),
		State:     state.Snapshot(),
		Handle:    "h1",
		CSRFToken: "tok",
		BasePath:  "/",
	}
}

func TestPageInitialState(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	doc := render(t, r, "", newData(uistate.NewPage(3)))

	require.Equal(t, "Chat Bot Webapp", doc.Find("title").Text())
	require.Equal(t, 4, doc.Find(".menu-desktop li").Length())
	require.False(t, doc.Find("#sidebar").HasClass("is-open"))
	require.False(t, doc.Find("#chat-box").HasClass("is-visible"))
	require.Equal(t, 0, doc.Find(".accordion-content.show").Length())
	require.Equal(t, 3, doc.Find("[data-accordion-content]").Length())

	prices := doc.Find(".plan .price").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	require.Equal(t, []string{"$14", "$49", "$99"}, prices)
	require.Equal(t, "/month", doc.Find(".price-suffix").First().Text())

	hx, ok := doc.Find(".menu-toggle").Attr("hx-post")
	require.True(t, ok)
	require.Equal(t, "/views/h1/nav/open", hx)

	headers, ok := doc.Find("body").Attr("hx-headers")
	require.True(t, ok)
	require.JSONEq(t, `{"X-CSRF-Token":"tok"}`, headers)
}

func TestFragmentsReflectState(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	page := uistate.NewPage(3)
	require.NoError(t, page.Apply(uistate.Event{Kind: uistate.EventNavOpen}))
	require.NoError(t, page.Apply(uistate.Event{Kind: uistate.EventPricingSelect, Index: 1}))
	require.NoError(t, page.Apply(uistate.Event{Kind: uistate.EventFAQToggle, Index: 2}))
	require.NoError(t, page.Apply(uistate.Event{Kind: uistate.EventChatShow}))
	data := newData(page)

	nav := render(t, r, FragmentNavPanel, data)
	require.True(t, nav.Find("#sidebar").HasClass("is-open"))
	link, _ := nav.Find(".sidebar-menu a").Eq(2).Attr("hx-post")
	require.Equal(t, "/views/h1/nav/entries/2", link)

	pricing := render(t, r, FragmentPricing, data)
	prices := pricing.Find(".plan .price").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	require.Equal(t, []string{"$140", "$490", "$990"}, prices)
	require.Equal(t, "/year", pricing.Find(".price-suffix").First().Text())
	require.True(t, pricing.Find(".period-option").Eq(1).HasClass("is-selected"))
	require.False(t, pricing.Find(".period-option").Eq(0).HasClass("is-selected"))

	faq := render(t, r, FragmentFAQ, data)
	require.Equal(t, 1, faq.Find(".accordion-content.show").Length())
	require.Equal(t, "faq-answer-2", faq.Find(".accordion-content.show").AttrOr("id", ""))
	require.Equal(t, "true", faq.Find("#faq-3").AttrOr("aria-expanded", ""))
	require.Contains(t, faq.Find("#faq-answer-0").Text(), "Storage tokens")

	chat := render(t, r, FragmentChat, data)
	require.True(t, chat.Find("#chat-box").HasClass("is-visible"))
	require.Equal(t, 3, chat.Find(".chat-message").Length())
	require.Equal(t, 2, chat.Find(".chat-message-assistant").Length())
}

func TestStaticRenderOmitsEndpoints(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	data := newData(uistate.NewPage(3))
	data.Static = true
	doc := render(t, r, "", data)

	require.Equal(t, 0, doc.Find("[hx-post]").Length())
	require.Equal(t, 0, doc.Find("[data-ui-target]").Length())
	require.Equal(t, 0, doc.Find("script").Length())
	require.Equal(t, 3, doc.Find(".accordion-wrapper").Length())
}

func TestTogglesKeepTheirNodes(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	doc := render(t, r, "", newData(uistate.NewPage(3)))

	cases := []struct {
		control string
		target  string
		class   string
		state   string
	}{
		{control: ".menu-toggle", target: "#sidebar", class: "is-open", state: "on"},
		{control: ".sidebar-close", target: "#sidebar", class: "is-open", state: "off"},
		{control: ".sidebar-menu a[hx-post]", target: "#sidebar", class: "is-open", state: "off"},
		{control: ".chat-launcher", target: "#chat-box", class: "is-visible", state: "flip"},
		{control: ".chat-close", target: "#chat-box", class: "is-visible", state: "off"},
		{control: "#faq-2", target: "#faq-answer-1", class: "show", state: "flip"},
	}
	for _, tc := range cases {
		control := doc.Find(tc.control).First()
		require.Equal(t, 1, control.Length(), tc.control)
		require.Equal(t, "none", control.AttrOr("hx-swap", ""), tc.control)
		require.False(t, control.Is("[hx-target]"), tc.control)
		require.Equal(t, tc.target, control.AttrOr("data-ui-target", ""), tc.control)
		require.Equal(t, tc.class, control.AttrOr("data-ui-class", ""), tc.control)
		require.Equal(t, tc.state, control.AttrOr("data-ui-state", ""), tc.control)
	}
	require.Equal(t, "#faq-list", doc.Find("#faq-1").AttrOr("data-ui-group", ""))
	require.Equal(t, "false", doc.Find(".menu-toggle").AttrOr("aria-expanded", ""))
}

func TestFAQAnswerSitsBesideItsButton(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	doc := render(t, r, FragmentFAQ, newData(uistate.NewPage(3)))

	require.Equal(t, 3, doc.Find("button.accordion-head").Length())
	require.Zero(t, doc.Find("button [data-accordion-content]").Length())
	require.Zero(t, doc.Find("button p, button a, button div").Length())

	answer := doc.Find("#faq-answer-0")
	require.Equal(t, "region", answer.AttrOr("role", ""))
	button := doc.Find("button.accordion-head").First()
	require.Equal(t, button.AttrOr("id", ""), answer.AttrOr("aria-labelledby", ""))
	require.Equal(t, "faq-answer-0", button.AttrOr("aria-controls", ""))
}

func TestHTMXScriptPinned(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	doc := render(t, r, "", newData(uistate.NewPage(3)))

	script := doc.Find(`script[src*="htmx.org@"]`)
	require.Equal(t, 1, script.Length())
	require.Equal(t, HTMX.Src, script.AttrOr("src", ""))
	require.True(t, strings.HasPrefix(script.AttrOr("integrity", ""), "sha384-"))
	require.Equal(t, "anonymous", script.AttrOr("crossorigin", ""))
}

func TestActionUnderBasePath(t *testing.T) {
	t.Parallel()

	data := PageData{Handle: "abc", BasePath: "/landing/"}
	require.Equal(t, "/landing/views/abc/faq/1/toggle", data.Action("faq", "1", "toggle"))
	require.Equal(t, "/landing/public/static/css/landing.css", data.Asset("css/landing.css"))
}
