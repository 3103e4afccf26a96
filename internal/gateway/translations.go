package gateway

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/tidwall/gjson"
)

// TranslationOption is one translation the community API offers.
type TranslationOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Translations lists every available translation.
func (c *Client) Translations(ctx context.Context) ([]TranslationOption, error) {
	doc, err := c.getJSON(ctx, join(c.endpoints.TranslationsAPI, "translations"))
	if err != nil {
		return nil, err
	}
	list := doc
	if !list.IsArray() {
		list = doc.Get("translations")
	}
	out := []TranslationOption{}
	for _, v := range list.Array() {
		out = append(out, TranslationOption{
			ID:          v.Get("id").Int(),
			Name:        v.Get("name").String(),
			Description: v.Get("description").String(),
			Link:        v.Get("link").String(),
		})
	}
	return out, nil
}

// TranslationLink is the resolved download link of a setting type.
type TranslationLink struct {
	Link string `json:"link"`
}

// TranslationBySetting resolves the link for a setting type (e.g. "settings-fr").
// The API answers with a quoted string, a {"link": ...} object or plain text.
func (c *Client) TranslationBySetting(ctx context.Context, settingType string) (TranslationLink, error) {
	body, err := c.get(ctx, join(c.endpoints.TranslationsAPI, "translations", settingType))
	if err != nil {
		return TranslationLink{}, err
	}
	return parseLink(body), nil
}

func parseLink(body []byte) TranslationLink {
	text := strings.TrimSpace(string(body))
	if gjson.Valid(text) {
		v := gjson.Parse(text)
		switch {
		case v.Type == gjson.String:
			return TranslationLink{Link: v.String()}
		case v.Get("link").Exists():
			return TranslationLink{Link: v.Get("link").String()}
		}
	}
	return TranslationLink{Link: strings.Trim(text, `"`)}
}

type optionNames []TranslationOption

func (o optionNames) String(i int) string { return o[i].Name }
func (o optionNames) Len() int            { return len(o) }

// FindTranslation returns the options whose name fuzzy-matches query, best
// match first. An empty query returns every option.
func FindTranslation(options []TranslationOption, query string) []TranslationOption {
	if strings.TrimSpace(query) == "" {
		return options
	}
	matches := fuzzy.FindFrom(query, optionNames(options))
	out := make([]TranslationOption, 0, len(matches))
	for _, m := range matches {
		out = append(out, options[m.Index])
	}
	return out
}
