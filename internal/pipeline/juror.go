package pipeline

import (
	"context"
	"fmt"
	"sort"

	"later-go/pkg/log"
)

const maxVerdicts = 5

// juror 从情报页里抽样论断并逐条用外部搜索核验。
// 搜索失败按未核验处理，本阶段永不失败。
func (o *Orchestrator) juror(ctx context.Context, s *State) error {
	claims := pickClaims(s.OnePager.Features, s.OnePager.Pricing)
	log.Infof("[Juror] 抽样 %d 条论断待核验", len(claims))

	for _, claim := range claims {
		if len(s.Verdicts) >= maxVerdicts {
			break
		}

		verdict := Verdict{Claim: claim}
		results, err := o.searchClient.Search(ctx, claim, 3)
		if err != nil {
			log.Warnf("[Juror] 核验查询失败: %v", err)
		} else if len(results) > 0 {
			verdict.Verified = true
			verdict.CitationURL = results[0].URL
		}
		s.Verdicts = append(s.Verdicts, verdict)
	}
	return nil
}

// pickClaims 取前 2 条功能和第 1 条定价组成论断，至多 3 条。
// 定价 map 按套餐名排序取首条，保证同样的情报页总是抽出同样的论断。
func pickClaims(features []string, pricing map[string]string) []string {
	claims := make([]string, 0, 3)
	for i, feature := range features {
		if i >= 2 {
			break
		}
		claims = append(claims, fmt.Sprintf("Feature: %s", feature))
	}

	if len(pricing) > 0 {
		plans := make([]string, 0, len(pricing))
		for plan := range pricing {
			plans = append(plans, plan)
		}
		sort.Strings(plans)
		claims = append(claims, fmt.Sprintf("Pricing %s: %s", plans[0], pricing[plans[0]]))
	}
	return claims
}
