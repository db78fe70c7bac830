package model

// OnePager 是研究阶段产出的结构化情报页，以 JSON 形式存储。
type OnePager struct {
	ProductName   string            `json:"product_name"`
	Overview      string            `json:"overview"`
	Features      []string          `json:"features"`
	Pricing       map[string]string `json:"pricing"`
	TechStack     []string          `json:"tech_stack"`
	Competitors   []string          `json:"competitors"`
	Integrations  []string          `json:"integrations"`
	HowToUse      []string          `json:"how_to_use"`
	UseCases      []string          `json:"use_cases"`
	UserFeedback  []string          `json:"user_feedback"`
	RecentUpdates []string          `json:"recent_updates"`
	LastUpdated   string            `json:"last_updated"`
}

// Normalize 把 nil 的切片和 map 补成空值，保证序列化后所有键都在。
func (p *OnePager) Normalize() {
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Pricing == nil {
		p.Pricing = map[string]string{}
	}
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	if p.Competitors == nil {
		p.Competitors = []string{}
	}
	if p.Integrations == nil {
		p.Integrations = []string{}
	}
	if p.HowToUse == nil {
		p.HowToUse = []string{}
	}
	if p.UseCases == nil {
		p.UseCases = []string{}
	}
	if p.UserFeedback == nil {
		p.UserFeedback = []string{}
	}
	if p.RecentUpdates == nil {
		p.RecentUpdates = []string{}
	}
}
