package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"finitefield.org/chatthing-web/internal/uistate"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrInvalidCatalog wraps every validation failure reported by Validate.
var ErrInvalidCatalog = errors.New("content: invalid catalog")

// MenuEntry is a navigation link.
type MenuEntry struct {
	ID    int    `yaml:"id"`
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
}

// FeatureLine is one bullet of a pricing plan.
type FeatureLine struct {
	ID   int    `yaml:"id"`
	Desc string `yaml:"desc"`
}

// PricingPlan is a pricing tier with a price per billing period.
type PricingPlan struct {
	ID           int           `yaml:"id"`
	Title        string        `yaml:"title"`
	IsPopular    bool          `yaml:"is_popular"`
	MonthlyPrice string        `yaml:"monthly_price"`
	AnnualPrice  string        `yaml:"annual_price"`
	Features     []FeatureLine `yaml:"features"`
}

// PriceMonthly implements uistate.Priced.
func (p PricingPlan) PriceMonthly() string { return p.MonthlyPrice }

// PriceAnnual implements uistate.Priced.
func (p PricingPlan) PriceAnnual() string { return p.AnnualPrice }

// PeriodOption labels one entry of the billing period toggle.
type PeriodOption struct {
	Label  string `yaml:"label"`
	Suffix string `yaml:"suffix"`
}

// FreeTier describes the plan shown below the pricing grid.
type FreeTier struct {
	Title    string        `yaml:"title"`
	Body     string        `yaml:"body"`
	BodyHTML template.HTML `yaml:"-"`
	CTA      string        `yaml:"cta"`
	Link     string        `yaml:"link"`
}

// Pricing is the pricing section.
type Pricing struct {
	Heading  string         `yaml:"heading"`
	Intro    string         `yaml:"intro"`
	Callout  string         `yaml:"callout"`
	Periods  []PeriodOption `yaml:"periods"`
	Plans    []PricingPlan  `yaml:"plans"`
	FreeTier FreeTier       `yaml:"free_tier"`
}

// FaqEntry is a question with its answer. AnswerHTML is rendered from the
// markdown Answer at load time.
type FaqEntry struct {
	ID         int           `yaml:"id"`
	Question   string        `yaml:"question"`
	Answer     string        `yaml:"answer"`
	AnswerHTML template.HTML `yaml:"-"`
}

// FAQSection is the FAQ section.
type FAQSection struct {
	Heading string     `yaml:"heading"`
	Entries []FaqEntry `yaml:"entries"`
}

// Hero is the copy of the first screen.
type Hero struct {
	Lead      string `yaml:"lead"`
	Highlight string `yaml:"highlight"`
	Trail     string `yaml:"trail"`
	Tagline   string `yaml:"tagline"`
	CTA       string `yaml:"cta"`
	Image     string `yaml:"image"`
	ImageAlt  string `yaml:"image_alt"`
}

// Showcase is a feature block with an illustration.
type Showcase struct {
	ID         int             `yaml:"id"`
	Heading    string          `yaml:"heading"`
	Image      string          `yaml:"image"`
	ImageAlt   string          `yaml:"image_alt"`
	ImageFirst bool            `yaml:"image_first"`
	Paragraphs []string        `yaml:"paragraphs"`
	Rendered   []template.HTML `yaml:"-"`
}

// ChatMessage is one line of the static chat transcript.
type ChatMessage struct {
	Role     string        `yaml:"role"`
	Text     string        `yaml:"text"`
	TextHTML template.HTML `yaml:"-"`
}

// IsAssistant reports whether the message is shown as the bot's.
func (m ChatMessage) IsAssistant() bool {
	return m.Role == "assistant"
}

// Chat is the mock chat widget content.
type Chat struct {
	Messages  []ChatMessage `yaml:"messages"`
	SendLabel string        `yaml:"send_label"`
}

// Catalog bundles every static collection the page renders.
type Catalog struct {
	Brand        string      `yaml:"brand"`
	Title        string      `yaml:"title"`
	Menu         []MenuEntry `yaml:"menu"`
	AccountLinks []MenuEntry `yaml:"account_links"`
	Hero         Hero        `yaml:"hero"`
	Showcases    []Showcase  `yaml:"showcases"`
	Pricing      Pricing     `yaml:"pricing"`
	FAQ          FAQSection  `yaml:"faq"`
	Chat         Chat        `yaml:"chat"`
}

// Load reads the catalog at path. An empty path loads the embedded default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", path, err)
	}
	return cat, nil
}

// Default returns the embedded catalog. It panics if the embedded file is
// broken, which tests catch.
func Default() *Catalog {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return cat
}

// Parse decodes, validates and renders a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if err := cat.render(newRenderer()); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks ids are unique and required fields are present.
func (c *Catalog) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalidCatalog}, args...)...))
	}

	seen := make(map[int]bool, len(c.Menu))
	for i, m := range c.Menu {
		if seen[m.ID] {
			add("menu[%d]: duplicate id %d", i, m.ID)
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.Link) == "" {
			add("menu[%d]: title and link are required", i)
		}
	}

	if len(c.Pricing.Periods) != uistate.PeriodCount {
		add("pricing: want %d periods, got %d", uistate.PeriodCount, len(c.Pricing.Periods))
	}
	seen = make(map[int]bool, len(c.Pricing.Plans))
	for i, p := range c.Pricing.Plans {
		if seen[p.ID] {
			add("plans[%d]: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Title) == "" {
			add("plans[%d]: title is required", i)
		}
		if p.MonthlyPrice == "" || p.AnnualPrice == "" {
			add("plans[%d]: monthly and annual prices are required", i)
		}
		features := make(map[int]bool, len(p.Features))
		for j, f := range p.Features {
			if features[f.ID] {
				add("plans[%d].features[%d]: duplicate id %d", i, j, f.ID)
			}
			features[f.ID] = true
		}
	}

	seen = make(map[int]bool, len(c.FAQ.Entries))
	for i, f := range c.FAQ.Entries {
		if seen[f.ID] {
			add("faq[%d]: duplicate id %d", i, f.ID)
		}
		seen[f.ID] = true
		if strings.TrimSpace(f.Question) == "" {
			add("faq[%d]: question is required", i)
		}
	}

	return errors.Join(problems...)
}

// MenuAt returns the menu entry at index.
func (c *Catalog) MenuAt(index int) (MenuEntry, error) {
	if err := uistate.CheckIndex("menu", index, len(c.Menu)); err != nil {
		return MenuEntry{}, err
	}
	return c.Menu[index], nil
}

// PlanAt returns the pricing plan at index.
func (c *Catalog) PlanAt(index int) (PricingPlan, error) {
	if err := uistate.CheckIndex("plan", index, len(c.Pricing.Plans)); err != nil {
		return PricingPlan{}, err
	}
	return c.Pricing.Plans[index], nil
}

// FAQAt returns the FAQ entry at index.
func (c *Catalog) FAQAt(index int) (FaqEntry, error) {
	if err := uistate.CheckIndex("faq", index, len(c.FAQ.Entries)); err != nil {
		return FaqEntry{}, err
	}
	return c.FAQ.Entries[index], nil
}

// Period returns the toggle option for p.
func (c *Catalog) Period(p uistate.Period) PeriodOption {
	if int(p) < 0 || int(p) >= len(c.Pricing.Periods) {
		return PeriodOption{}
	}
	return c.Pricing.Periods[p]
}

type renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newRenderer() renderer {
	return renderer{
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
	}
}

func (r renderer) html(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	// #nosec G203 -- sanitised by bluemonday.
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

func (c *Catalog) render(r renderer) error {
	var err error
	for i := range c.FAQ.Entries {
		if c.FAQ.Entries[i].AnswerHTML, err = r.html(c.FAQ.Entries[i].Answer); err != nil {
			return fmt.Errorf("faq[%d]: %w", i, err)
		}
	}
	for i := range c.Showcases {
		s := &c.Showcases[i]
		s.Rendered = make([]template.HTML, 0, len(s.Paragraphs))
		for _, p := range s.Paragraphs {
			out, err := r.html(p)
			if err != nil {
				return fmt.Errorf("showcases[%d]: %w", i, err)
			}
			s.Rendered = append(s.Rendered, out)
		}
	}
	if c.Pricing.FreeTier.BodyHTML, err = r.html(c.Pricing.FreeTier.Body); err != nil {
		return fmt.Errorf("free tier: %w", err)
	}
	for i := range c.Chat.Messages {
		if c.Chat.Messages[i].TextHTML, err = r.html(c.Chat.Messages[i].Text); err != nil {
			return fmt.Errorf("chat[%d]: %w", i, err)
		}
	}
	return nil
}
