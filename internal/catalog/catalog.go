// Package catalog holds the static per-token display tables.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tokens.yaml
var defaultTokens []byte

const NotAvailable = "N/A"

type Token struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Name      string  `yaml:"name" json:"name"`
	Price     float64 `yaml:"price" json:"price"`
	Volume    string  `yaml:"volume" json:"volume"`
	MarketCap string  `yaml:"market_cap" json:"market_cap"`
}

type file struct {
	Tokens []Token `yaml:"tokens"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	bySymbol map[string]Token
	order    []string
}

// Default returns the embedded token table.
func Default() *Catalog {
	c, err := Parse(defaultTokens)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded table when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{bySymbol: make(map[string]Token, len(f.Tokens))}
	for i, t := range f.Tokens {
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if t.Symbol == "" {
			return nil, fmt.Errorf("catalog entry %d has no symbol", i)
		}
		if _, dup := c.bySymbol[t.Symbol]; dup {
			return nil, fmt.Errorf("duplicate catalog symbol %s", t.Symbol)
		}
		if t.Price < 0 {
			return nil, fmt.Errorf("catalog symbol %s has negative price", t.Symbol)
		}
		c.bySymbol[t.Symbol] = t
		c.order = append(c.order, t.Symbol)
	}
	return c, nil
}

// Name returns the display name, falling back to the symbol itself.
func (c *Catalog) Name(symbol string) string {
	if t, ok := c.bySymbol[symbol]; ok && t.Name != "" {
		return t.Name
	}
	return symbol
}

// Metrics returns price, volume and market cap. Unknown symbols yield 0 and "N/A".
func (c *Catalog) Metrics(symbol string) (price float64, volume, marketCap string) {
	t, ok := c.bySymbol[symbol]
	if !ok {
		return 0, NotAvailable, NotAvailable
	}
	volume, marketCap = t.Volume, t.MarketCap
	if volume == "" {
		volume = NotAvailable
	}
	if marketCap == "" {
		marketCap = NotAvailable
	}
	return t.Price, volume, marketCap
}

func (c *Catalog) Lookup(symbol string) (Token, bool) {
	t, ok := c.bySymbol[symbol]
	return t, ok
}

// Symbols returns tracked symbols in table order.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Tokens returns all entries sorted by symbol.
func (c *Catalog) Tokens() []Token {
	out := make([]Token, 0, len(c.bySymbol))
	for _, t := range c.bySymbol {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
