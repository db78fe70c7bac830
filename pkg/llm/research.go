package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"later-go/internal/model"
)

const synthesisSystemPrompt = `你是一名严谨的产品研究员。根据给定的证据文本，为该产品生成一份结构化情报页。
只使用证据中出现的信息，不要编造。输出一个 JSON 对象，键为：
product_name, overview, features, pricing, tech_stack, competitors, integrations,
how_to_use, use_cases, user_feedback, recent_updates, last_updated。
features/tech_stack/competitors/integrations/how_to_use/use_cases/user_feedback/recent_updates 为字符串数组，
pricing 为 {套餐名: 价格描述} 的对象，其余为字符串。证据不足的键输出空数组、空对象或空串。`

const pricingSystemPrompt = `你是一名定价信息抽取器。从官网正文中抽取各套餐的定价。
输出 JSON 对象：{"pricing": {套餐名: 价格描述}}。页面上没有定价信息时输出 {"pricing": {}}。不要编造。`

const officialSiteSystemPrompt = `你是一名产品官网仲裁器。给定产品名和若干搜索结果，
选出该产品的官方网站。输出 JSON 对象：{"url": "..."}。
聚合站、评测站、应用商店和社交媒体都不算官网。没有可信候选时输出 {"url": ""}。`

const screenshotIntentSystemPrompt = `你是一名截图分类器。根据截图 OCR 出的文字，判断用户保存这张截图的意图。
输出 JSON 对象：{"intent": "..."}，intent 取值之一：
product_mention（提到了某个产品或工具）、article（文章片段）、conversation（聊天记录）、other。`

const productNameSystemPrompt = `你是一名产品名抽取器。从给定文本中找出被讨论的那一个产品或工具的名字。
输出 JSON 对象：{"name": "..."}。文本没有明确指向某个产品时输出 {"name": ""}。
只输出产品名本身，不要带公司后缀或描述语。`

// SynthesizeOnePager 调用主模型把证据文本合成为结构化情报页。
// hints 来自截图通道：意图和 OCR 原文一并写进提示词，帮助模型对齐证据。
func (c *openAICompatibleClient) SynthesizeOnePager(ctx context.Context, productName, evidence string, hints SynthesisHints) (model.OnePager, error) {
	var page model.OnePager
	user := fmt.Sprintf("产品名：%s\n\n证据文本：\n%s", productName, evidence)
	if hints.Intent != "" {
		user += fmt.Sprintf("\n\n截图意图：%s", hints.Intent)
	}
	if hints.OCRText != "" {
		user += fmt.Sprintf("\n\n截图 OCR 文本：\n%s", hints.OCRText)
	}
	if err := c.completeJSON(ctx, c.cfg.ModelPrimary, synthesisSystemPrompt, user, &page); err != nil {
		return model.OnePager{}, fmt.Errorf("合成情报页失败: %w", err)
	}
	if strings.TrimSpace(page.ProductName) == "" {
		page.ProductName = productName
	}
	page.Normalize()
	return page, nil
}

// ExtractPricing 调用轻量模型从官网正文里抽取定价表。
func (c *openAICompatibleClient) ExtractPricing(ctx context.Context, productName, siteText string) (map[string]string, error) {
	var out struct {
		Pricing map[string]string `json:"pricing"`
	}
	user := fmt.Sprintf("产品名：%s\n\n官网正文：\n%s", productName, siteText)
	if err := c.completeJSON(ctx, c.cfg.ModelLight, pricingSystemPrompt, user, &out); err != nil {
		return nil, fmt.Errorf("抽取定价失败: %w", err)
	}
	if out.Pricing == nil {
		out.Pricing = map[string]string{}
	}
	return out.Pricing, nil
}

// PickOfficialSite 让模型从候选搜索结果中仲裁出官网，仅允许返回候选列表中的 URL。
func (c *openAICompatibleClient) PickOfficialSite(ctx context.Context, productName string, candidates []SiteCandidate) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}

	candBytes, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("序列化候选列表失败: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	user := fmt.Sprintf("产品名：%s\n\n候选搜索结果：\n%s", productName, string(candBytes))
	if err := c.completeJSON(ctx, c.cfg.ModelLight, officialSiteSystemPrompt, user, &out); err != nil {
		return "", fmt.Errorf("官网仲裁失败: %w", err)
	}

	// 模型只能在候选里选，防止它自己编一个 URL 出来
	picked := strings.TrimSpace(out.URL)
	for _, cand := range candidates {
		if cand.URL == picked {
			return picked, nil
		}
	}
	return "", nil
}

// ClassifyScreenshotIntent 判断截图意图，失败时归入 other。
func (c *openAICompatibleClient) ClassifyScreenshotIntent(ctx context.Context, ocrText string) (string, error) {
	var out struct {
		Intent string `json:"intent"`
	}
	if err := c.completeJSON(ctx, c.cfg.ModelLight, screenshotIntentSystemPrompt, ocrText, &out); err != nil {
		return "", fmt.Errorf("截图意图分类失败: %w", err)
	}
	switch out.Intent {
	case "product_mention", "article", "conversation", "other":
		return out.Intent, nil
	default:
		return "other", nil
	}
}

// ExtractProductName 从文本里抽出产品名，模型给不出时返回空串。
func (c *openAICompatibleClient) ExtractProductName(ctx context.Context, text string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.completeJSON(ctx, c.cfg.ModelLight, productNameSystemPrompt, text, &out); err != nil {
		return "", fmt.Errorf("抽取产品名失败: %w", err)
	}
	return strings.TrimSpace(out.Name), nil
}
