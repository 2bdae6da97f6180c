package redis

import (
	"encoding/json"
	"fmt"

	"github.com/user/scraper-service/internal/entity"
)

// storedRecipe is the persisted recipe layout. The key names and the
// use_headless flag (instead of a fetch-mode enum) are fixed by the store
// format; the codec converts to and from the in-memory entity.
type storedRecipe struct {
	Domain          string                `json:"domain"`
	UseHeadless     bool                  `json:"use_headless"`
	UseProxy        bool                  `json:"use_proxy"`
	Timeout         int                   `json:"timeout"`
	UserAgent       string                `json:"user_agent,omitempty"`
	ProxyConfig     string                `json:"proxy_config,omitempty"`
	RetryCount      int                   `json:"retry_count"`
	ExtractionRules map[string]storedRule `json:"extraction_rules"`
	MediaRules      storedMediaRules      `json:"media_rules"`
}

type storedRule struct {
	Selector     string `json:"selector"`
	SelectorType string `json:"selector_type"`
	Attribute    string `json:"attribute,omitempty"`
	PostProcess  string `json:"post_process,omitempty"`
}

type storedMediaRules struct {
	Images storedRule `json:"images"`
	Videos storedRule `json:"videos"`
	Embeds storedRule `json:"embeds"`
}

func encodeRecipe(recipe *entity.Recipe) ([]byte, error) {
	stored := storedRecipe{
		Domain:          recipe.Domain,
		UseHeadless:     recipe.FetchMode == entity.FetchRendered,
		UseProxy:        recipe.Proxy != "",
		Timeout:         recipe.TimeoutSeconds,
		UserAgent:       recipe.UserAgent,
		ProxyConfig:     recipe.Proxy,
		RetryCount:      recipe.RetryCount,
		ExtractionRules: make(map[string]storedRule, len(recipe.Fields)),
		MediaRules: storedMediaRules{
			Images: encodeRule(recipe.Media.Images),
			Videos: encodeRule(recipe.Media.Videos),
			Embeds: encodeRule(recipe.Media.Embeds),
		},
	}
	for field, rule := range recipe.Fields {
		stored.ExtractionRules[field] = encodeRule(rule)
	}
	return json.Marshal(stored)
}

func decodeRecipe(payload []byte) (*entity.Recipe, error) {
	var stored storedRecipe
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal recipe: %w", err)
	}
	mode := entity.FetchStatic
	if stored.UseHeadless {
		mode = entity.FetchRendered
	}
	proxy := ""
	if stored.UseProxy {
		proxy = stored.ProxyConfig
	}
	recipe := &entity.Recipe{
		Domain:         stored.Domain,
		FetchMode:      mode,
		TimeoutSeconds: stored.Timeout,
		RetryCount:     stored.RetryCount,
		UserAgent:      stored.UserAgent,
		Proxy:          proxy,
		Fields:         make(map[string]entity.ExtractionRule, len(stored.ExtractionRules)),
		Media: entity.MediaRules{
			Images: decodeRule(stored.MediaRules.Images),
			Videos: decodeRule(stored.MediaRules.Videos),
			Embeds: decodeRule(stored.MediaRules.Embeds),
		},
	}
	for field, rule := range stored.ExtractionRules {
		recipe.Fields[field] = decodeRule(rule)
	}
	return recipe, nil
}

func encodeRule(rule entity.ExtractionRule) storedRule {
	return storedRule{
		Selector:     rule.Selector,
		SelectorType: string(rule.SelectorKind),
		Attribute:    rule.Attribute,
		PostProcess:  rule.PostProcess,
	}
}

func decodeRule(rule storedRule) entity.ExtractionRule {
	return entity.ExtractionRule{
		SelectorKind: entity.SelectorKind(rule.SelectorType),
		Selector:     rule.Selector,
		Attribute:    rule.Attribute,
		PostProcess:  rule.PostProcess,
	}
}
